package server

import "bytes"

const liveReloadScript = `<script>
(function() {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/__bengal/ws");
  ws.onmessage = function(e) { if (e.data === "reload") location.reload(); };
})();
</script>`

// InjectLiveReload inserts the reload script before </body>, or appends it
// when the page has no closing body tag.
func InjectLiveReload(html []byte) []byte {
	marker := []byte("</body>")
	if idx := bytes.LastIndex(html, marker); idx != -1 {
		var out bytes.Buffer
		out.Grow(len(html) + len(liveReloadScript))
		out.Write(html[:idx])
		out.WriteString(liveReloadScript)
		out.Write(html[idx:])
		return out.Bytes()
	}
	return append(html, []byte(liveReloadScript)...)
}

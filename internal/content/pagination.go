package content

import "fmt"

// Paginator carries pagination state for one page of a paginated listing.
type Paginator struct {
	Current int
	Total   int
	PerPage int
	BaseURL string
}

// HasPrev reports whether an earlier page exists.
func (p *Paginator) HasPrev() bool { return p.Current > 1 }

// HasNext reports whether a later page exists.
func (p *Paginator) HasNext() bool { return p.Current < p.Total }

// PrevURL returns the URL of the previous page; page 1 is the base URL.
func (p *Paginator) PrevURL() string {
	switch {
	case !p.HasPrev():
		return ""
	case p.Current == 2:
		return p.BaseURL
	default:
		return fmt.Sprintf("%spage/%d/", p.BaseURL, p.Current-1)
	}
}

// NextURL returns the URL of the next page.
func (p *Paginator) NextURL() string {
	if !p.HasNext() {
		return ""
	}
	return fmt.Sprintf("%spage/%d/", p.BaseURL, p.Current+1)
}

// PageURL returns the URL of page n within this pagination set.
func (p *Paginator) PageURL(n int) string {
	if n <= 1 {
		return p.BaseURL
	}
	return fmt.Sprintf("%spage/%d/", p.BaseURL, n)
}

// Paginate splits posts into per-page chunks and returns one Paginator plus
// post slice per chunk. Page 1 lives at baseURL, page k>1 at
// baseURL + "page/k/". perPage <= 0 is treated as 10.
func Paginate(posts []*Page, perPage int, baseURL string) ([][]*Page, []*Paginator) {
	if len(posts) == 0 {
		return nil, nil
	}
	if perPage <= 0 {
		perPage = 10
	}

	total := (len(posts) + perPage - 1) / perPage
	chunks := make([][]*Page, 0, total)
	paginators := make([]*Paginator, 0, total)

	for i := 0; i < total; i++ {
		start := i * perPage
		end := start + perPage
		if end > len(posts) {
			end = len(posts)
		}
		chunks = append(chunks, posts[start:end])
		paginators = append(paginators, &Paginator{
			Current: i + 1,
			Total:   total,
			PerPage: perPage,
			BaseURL: baseURL,
		})
	}
	return chunks, paginators
}

package http

import (
	"embed"
	"io/fs"
	"net/http"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/language"
)

//go:embed static
var staticFiles embed.FS

// Page variants. The first entry is served when nothing matches.
var pageVariants = []struct {
	tag  language.Tag
	file string
}{
	{language.Arabic, "static/index.ar.html"},
	{language.English, "static/index.en.html"},
}

const langCacheSize = 256

// pageSet picks the client page for a request. Accept-Language values repeat
// heavily across clients, so match results are memoised per raw header.
type pageSet struct {
	pages   [][]byte
	tags    []language.Tag
	matcher language.Matcher
	cache   *lru.Cache[string, int]
}

func newPageSet() *pageSet {
	p := &pageSet{}
	for _, variant := range pageVariants {
		body, err := staticFiles.ReadFile(variant.file)
		if err != nil {
			panic("missing embedded page " + variant.file)
		}
		p.pages = append(p.pages, body)
		p.tags = append(p.tags, variant.tag)
	}
	p.matcher = language.NewMatcher(p.tags)

	cache, err := lru.New[string, int](langCacheSize)
	if err != nil {
		panic(err)
	}
	p.cache = cache
	return p
}

// choose returns the index of the page variant for r: an explicit ?lang=
// wins over Accept-Language.
func (p *pageSet) choose(r *http.Request) int {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return p.match(lang)
	}

	header := r.Header.Get("Accept-Language")
	if idx, ok := p.cache.Get(header); ok {
		return idx
	}
	idx := p.match(header)
	p.cache.Add(header, idx)
	return idx
}

func (p *pageSet) match(values ...string) int {
	_, idx := language.MatchStrings(p.matcher, values...)
	if idx < 0 || idx >= len(p.pages) {
		return 0
	}
	return idx
}

func (a *api) handleIndex(w http.ResponseWriter, r *http.Request) {
	idx := a.pages.choose(r)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Language", a.pages.tags[idx].String())
	w.Header().Add("Vary", "Accept-Language")
	w.WriteHeader(http.StatusOK)
	w.Write(a.pages.pages[idx])
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

package spa

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
)

// где обычно лежит собранный фронт
var preferred = []string{
	"frontend/index.html",
	"frontend/public/index.html",
	"public/index.html",
	"dist/index.html",
	"build/index.html",
	"index.html",
}

const maxDepth = 3

// пропускаем при обходе
var skipDirs = map[string]bool{
	"node_modules": true, ".git": true, "vendor": true, "_examples": true,
}

// FindIndexHTML ищет входной документ под root: сначала известные пути,
// потом index.html обходом в ширину (до глубины 3), потом любой *.html.
// Возвращает "" если ничего нет.
func FindIndexHTML(root string) string {
	for _, rel := range preferred {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if isFile(p) {
			return p
		}
	}

	var anyHTML string
	level := []string{root}
	for depth := 0; depth <= maxDepth && len(level) > 0; depth++ {
		var next []string
		for _, dir := range level {
			entries, err := os.ReadDir(dir)
			if err != nil {
				continue
			}
			// стабильный порядок
			sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
			for _, e := range entries {
				p := filepath.Join(dir, e.Name())
				if e.IsDir() {
					if !skipDirs[e.Name()] && !strings.HasPrefix(e.Name(), ".") {
						next = append(next, p)
					}
					continue
				}
				if strings.EqualFold(e.Name(), "index.html") {
					return p
				}
				if anyHTML == "" && strings.EqualFold(filepath.Ext(e.Name()), ".html") {
					anyHTML = p
				}
			}
		}
		level = next
	}
	return anyHTML
}

func isFile(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}

// Handler ищет index под Root; статику раздаёт только из каталога index.
type Handler struct {
	Root  string
	Index string // пусто — ищем через FindIndexHTML
}

func New(root string) *Handler {
	return &Handler{Root: root, Index: FindIndexHTML(root)}
}

// файлы сервера, которые могут лежать рядом с index
var serverFiles = map[string]bool{
	"config.json": true, "go.mod": true, "go.sum": true,
}

// hidden: dot-сегменты (.env, .git/...) и конфиги сервера наружу не отдаём.
func hidden(clean string) bool {
	for _, seg := range strings.Split(strings.TrimPrefix(clean, "/"), "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	base := path.Base(clean)
	return serverFiles[base] || path.Ext(base) == ".go"
}

// NoRoute: /api/* -> 404 JSON; файл рядом с index -> файл; GET/HEAD -> index; иначе 404.
func (h *Handler) NoRoute(c *gin.Context) {
	p := c.Request.URL.Path
	if p == "/api" || strings.HasPrefix(p, "/api/") {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found", "code": "not_found"})
		return
	}
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.String(http.StatusNotFound, "404 page not found")
		return
	}
	if h.Index == "" || !isFile(h.Index) {
		c.String(http.StatusNotFound, "404 page not found")
		return
	}

	// 1) существующий файл из каталога index
	clean := path.Clean("/" + p)
	if clean != "/" && !hidden(clean) {
		full := filepath.Join(filepath.Dir(h.Index), filepath.FromSlash(strings.TrimPrefix(clean, "/")))
		if isFile(full) {
			serveFile(c, full)
			return
		}
	}

	// 2) index для SPA
	serveFile(c, h.Index)
}

// serveFile: http.ServeFile отвечает 400 на ".." в пути запроса, а путь уже очищен.
func serveFile(c *gin.Context, name string) {
	f, err := os.Open(name)
	if err != nil {
		c.String(http.StatusNotFound, "404 page not found")
		return
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		c.String(http.StatusNotFound, "404 page not found")
		return
	}
	http.ServeContent(c.Writer, c.Request, st.Name(), st.ModTime(), f)
}

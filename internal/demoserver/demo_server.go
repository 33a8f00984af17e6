// Package demoserver is a small HTTP server whose pages carry deliberate
// accessibility defects in switchable versions. Audit it, switch versions,
// audit again and the comparison endpoint shows the fixes.
package demoserver

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"sync"
)

// DemoServer serves the demo pages and a control panel for switching page
// versions between audits.
type DemoServer struct {
	cfg      Config
	pages    map[string]PageDefinition
	versions map[string]int // path -> current version
	mu       sync.RWMutex
}

// NewDemoServer creates a new demo server instance.
func NewDemoServer(cfg Config) *DemoServer {
	pageMap := make(map[string]PageDefinition)
	versions := make(map[string]int)
	for _, p := range GetAllPages() {
		pageMap[p.Path] = p
		versions[p.Path] = cfg.InitialVersion
	}
	return &DemoServer{cfg: cfg, pages: pageMap, versions: versions}
}

// Start starts the demo server.
func (s *DemoServer) Start() error {
	mux := http.NewServeMux()

	for path := range s.pages {
		p := path // capture for closure
		mux.HandleFunc(p, s.pageHandler(p))
	}

	mux.HandleFunc("/demo/control", s.controlPanelHandler)
	mux.HandleFunc("/demo/set-version", s.setVersionHandler)
	mux.HandleFunc("/demo/fix-all", s.fixAllHandler)
	mux.HandleFunc("/demo/reset", s.resetHandler)

	mux.HandleFunc("/static/", s.staticHandler)

	addr := fmt.Sprintf(":%d", s.cfg.Port)
	fmt.Printf("Demo site on http://localhost%s\n", addr)
	fmt.Printf("Control panel at http://localhost%s/demo/control\n", addr)
	return http.ListenAndServe(addr, mux)
}

// pageHandler serves one page at its currently selected version.
func (s *DemoServer) pageHandler(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		pageDef, ok := s.pages[path]
		version := s.versions[path]
		s.mu.RUnlock()

		if !ok {
			http.NotFound(w, r)
			return
		}

		pageVersion, ok := pageDef.Versions[version]
		if !ok {
			// Fall back to the closest lower version.
			for v := version; v >= 1; v-- {
				if pv, exists := pageDef.Versions[v]; exists {
					pageVersion = pv
					break
				}
			}
		}

		contentType := pageVersion.ContentType
		if contentType == "" {
			contentType = "text/html; charset=utf-8"
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(pageVersion.HTML))
	}
}

// staticHandler serves placeholder assets so pages have no broken resources.
func (s *DemoServer) staticHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write([]byte("placeholder: " + r.URL.Path))
}

func (s *DemoServer) controlPanelHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tmpl := template.Must(template.New("control").Parse(controlPanelHTML))
	data := struct {
		Pages    map[string]PageDefinition
		Versions map[string]int
	}{
		Pages:    s.pages,
		Versions: s.versions,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = tmpl.Execute(w, data)
}

func (s *DemoServer) setVersionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := r.FormValue("path")
	version, err := strconv.Atoi(r.FormValue("version"))
	if err != nil {
		http.Error(w, "Invalid version number", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	if _, ok := s.pages[path]; ok {
		s.versions[path] = version
	}
	s.mu.Unlock()

	writeControlJSON(w, map[string]any{"success": true, "path": path, "version": version})
}

// fixAllHandler moves every page to its highest (most accessible) version.
func (s *DemoServer) fixAllHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	for path, def := range s.pages {
		maxV := 1
		for v := range def.Versions {
			if v > maxV {
				maxV = v
			}
		}
		s.versions[path] = maxV
	}
	s.mu.Unlock()

	writeControlJSON(w, map[string]any{"success": true, "message": "All pages fixed"})
}

// resetHandler restores every page to its defective first version.
func (s *DemoServer) resetHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	for path := range s.versions {
		s.versions[path] = 1
	}
	s.mu.Unlock()

	writeControlJSON(w, map[string]any{"success": true, "message": "All pages reset to v1"})
}

func writeControlJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

const controlPanelHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <title>Acesso Demo Site Control Panel</title>
    <style>
        body { font-family: system-ui, sans-serif; max-width: 900px; margin: 0 auto; padding: 20px; }
        .page-card { border: 1px solid #ddd; border-radius: 6px; padding: 16px; margin: 12px 0; }
        .version-btn { padding: 6px 14px; margin-right: 6px; cursor: pointer; }
        .version-btn.active { background: #005ea2; color: white; }
    </style>
</head>
<body>
    <h1>Acesso Demo Site</h1>
    <p>Version 1 of every page is deliberately inaccessible; higher versions
    fix the defects. Audit the site, switch versions, audit again and compare
    the two audits.</p>
    <p>
        <button onclick="post('/demo/fix-all')">Fix all pages</button>
        <button onclick="post('/demo/reset')">Reset to defective</button>
    </p>
    {{range $path, $page := .Pages}}
    <div class="page-card">
        <a href="{{$path}}" target="_blank">{{$path}}</a>
        (current: v{{index $.Versions $path}})
        <p>{{$page.Description}}</p>
        {{range $v, $_ := $page.Versions}}
        <button class="version-btn {{if eq (index $.Versions $path) $v}}active{{end}}"
                onclick="setVersion('{{$path}}', {{$v}})">v{{$v}}</button>
        {{end}}
    </div>
    {{end}}
    <script>
        function post(url, body) {
            fetch(url, {
                method: 'POST',
                headers: {'Content-Type': 'application/x-www-form-urlencoded'},
                body: body || ''
            }).then(() => location.reload());
        }
        function setVersion(path, version) {
            post('/demo/set-version', 'path=' + encodeURIComponent(path) + '&version=' + version);
        }
    </script>
</body>
</html>`

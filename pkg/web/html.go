package web

import (
	"html/template"
	"net/http"

	"github.com/deskhand/deskhand/pkg/journal"
	"github.com/deskhand/deskhand/pkg/types"
	"github.com/deskhand/deskhand/pkg/vault"
)

var templates = template.Must(template.New("").Parse(pageTemplates))

type indexData struct {
	Zone       types.Zone
	CanDecide  bool
	Folders    []folderCount
	Pending    []planView
	NeedsWork  []planView
	Recent     []journal.Entry
	DoneTail   []vault.Handle
}

type folderCount struct {
	Name  string
	Count int
}

type viewData struct {
	Handle vault.Handle
	Header types.Header
	Body   string
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	data := indexData{
		Zone:      s.zone,
		CanDecide: s.caps.ApproveReject,
	}
	for _, f := range []string{
		vault.FolderNeedsAction,
		vault.FolderPendingApproval,
		vault.FolderApproved,
		vault.FolderRejected,
		vault.FolderDone,
		vault.FolderQuarantine,
	} {
		data.Folders = append(data.Folders, folderCount{Name: f, Count: s.vault.Count(f)})
	}
	data.Pending, _ = s.listViews(vault.FolderPendingApproval)
	data.NeedsWork, _ = s.listViews(vault.FolderNeedsAction)
	data.Recent = s.journal.Recent(10)
	if done, err := s.vault.List(vault.FolderDone); err == nil {
		if len(done) > 10 {
			done = done[len(done)-10:]
		}
		data.DoneTail = done
	}
	s.render(w, "index", data)
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error().Err(err).Str("template", name).Msg("render failed")
	}
}

const pageTemplates = `
{{define "index"}}<!doctype html>
<html><head><title>Deskhand</title>
<style>
body{font-family:sans-serif;max-width:60rem;margin:2rem auto;padding:0 1rem}
table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:.3rem .6rem}
form{display:inline}button{margin-left:.3rem}
.muted{color:#777}
</style></head><body>
<h1>Deskhand <span class="muted">({{.Zone}} zone)</span></h1>
<h2>Folders</h2>
<table><tr><th>Folder</th><th>Items</th></tr>
{{range .Folders}}<tr><td>{{.Name}}</td><td>{{.Count}}</td></tr>{{end}}
</table>
<h2>Awaiting Approval</h2>
{{if not .Pending}}<p class="muted">Nothing waiting.</p>{{end}}
<ul>
{{range .Pending}}<li><a href="/view/Pending_Approval/{{.Name}}">{{.Name}}</a>
 <span class="muted">{{.Action}} conf {{printf "%.2f" .Confidence}}</span>
{{if $.CanDecide}}
<form method="post" action="/approve/{{.Name}}"><button>Approve</button></form>
<form method="post" action="/reject/{{.Name}}"><button>Reject</button></form>
{{end}}</li>{{end}}
</ul>
<h2>Needs Action</h2>
{{if not .NeedsWork}}<p class="muted">Inbox clear.</p>{{end}}
<ul>{{range .NeedsWork}}<li><a href="/view/Needs_Action/{{.Name}}">{{.Name}}</a> <span class="muted">{{.Priority}}</span></li>{{end}}</ul>
<h2>Recent Activity</h2>
<ul>{{range .Recent}}<li><span class="muted">{{.Timestamp}}</span> {{.Action}} {{.Source}} ({{.Result}})</li>{{end}}</ul>
<h2>Recently Done</h2>
<ul>{{range .DoneTail}}<li><a href="/view/Done/{{.Name}}">{{.Name}}</a></li>{{end}}</ul>
</body></html>{{end}}

{{define "view"}}<!doctype html>
<html><head><title>{{.Handle.Name}}</title>
<style>body{font-family:sans-serif;max-width:60rem;margin:2rem auto;padding:0 1rem}pre{background:#f6f6f6;padding:1rem;white-space:pre-wrap}</style>
</head><body>
<p><a href="/">&larr; dashboard</a></p>
<h1>{{.Handle.Folder}}/{{.Handle.Name}}</h1>
<p class="muted">type {{.Header.Type}}{{with .Header.Source}} &middot; source {{.}}{{end}}{{with .Header.Action}} &middot; action {{.}}{{end}}</p>
<pre>{{.Body}}</pre>
</body></html>{{end}}
`

package docs

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/hkpeprah/jerbminer/lib/scrapers/jobmine/core"
	"github.com/hkpeprah/jerbminer/lib/telemetry"

	"github.com/stretchr/testify/require"
)

type upload struct {
	filename string
	state    string
}

// docsPortal renders the document manager pages from in-memory state
// and serves the three-hop download chain.
type docsPortal struct {
	mu sync.Mutex

	baseUrl   string
	documents []string
	quotaFull bool
	payload   []byte

	actions []string
	uploads []upload
}

func (p *docsPortal) record(action string) {
	if action == "" {
		return
	}
	p.mu.Lock()
	p.actions = append(p.actions, action)
	p.mu.Unlock()
}

func (p *docsPortal) sawAction(prefix string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sawActionLocked(prefix)
}

func (p *docsPortal) sawActionLocked(prefix string) bool {
	for _, action := range p.actions {
		if strings.HasPrefix(action, prefix) {
			return true
		}
	}
	return false
}

const tokensForm = `<form action="x">
<input type="hidden" name="ICSID" value="c29tZXNpZA==" />
<input type="hidden" name="ICStateNum" value="10" />
</form>`

func (p *docsPortal) renderPage() string {
	var b strings.Builder
	b.WriteString("<html><body>")
	b.WriteString(tokensForm)
	b.WriteString("<table><tr><th>Document Number</th><th>Name</th></tr>")
	for i, name := range p.documents {
		fmt.Fprintf(&b, `<tr id="trUW_CO_STU_DOCS$%d"><td>%d</td><td>%s</td></tr>`, i, i+1, name)
	}
	b.WriteString("</table>")
	if !p.quotaFull {
		b.WriteString(`<a id="UW_CO_PDF_WRK_UW_CO_DOC_CREATE" href="#">Create</a>`)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func (p *docsPortal) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/psp/SS/EMPLOYEE/WORK/h/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>Home</body></html>"))
	})

	mux.HandleFunc("/psc/SS/EMPLOYEE/WORK/c/UW_CO_STUDENTS.UW_CO_STU_DOCS.GBL",
		func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				err := r.ParseMultipartForm(16 << 20)
				if err != nil {
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				p.mu.Lock()
				p.uploads = append(p.uploads, upload{
					filename: r.MultipartForm.File["file"][0].Filename,
					state:    r.FormValue("ICStateNum"),
				})
				p.mu.Unlock()
				w.Write([]byte("<html><body>Saved</body></html>"))
				return
			}

			action := r.URL.Query().Get("ICAction")
			p.record(action)

			switch {
			case action == "":
				p.mu.Lock()
				page := p.renderPage()
				p.mu.Unlock()
				w.Write([]byte(page))
			case strings.HasPrefix(action, "UW_CO_PDF_LINKS_UW_CO_"):
				w.Write([]byte(`<html><body>
<script>window.open('/psc/SS/?cmd=viewattach&slot=0','win');</script>
</body></html>`))
			case action == "UW_CO_PDF_WRK_UW_CO_DOC_CREATE":
				p.mu.Lock()
				p.documents = append(p.documents, "")
				p.mu.Unlock()
				w.Write([]byte("<html><body>Saved</body></html>"))
			case strings.HasPrefix(action, "UW_CO_PDF_WRK_UW_CO_DOC_DELETE$"):
				fields := strings.Split(action, "$")
				index := 0
				fmt.Sscanf(fields[1], "%d", &index)
				p.mu.Lock()
				if index < len(p.documents) {
					p.documents = append(p.documents[:index], p.documents[index+1:]...)
				}
				p.mu.Unlock()
				w.Write([]byte("<html><body>Saved</body></html>"))
			case action == "#ICSave":
				p.mu.Lock()
				for i := range p.documents {
					field := fmt.Sprintf("UW_CO_STU_DOCS_UW_CO_DOC_DESC$%d", i)
					if name := r.URL.Query().Get(field); name != "" {
						p.documents[i] = name
					}
				}
				p.mu.Unlock()
				w.Write([]byte("<html><body>Saved</body></html>"))
			default:
				w.Write([]byte("<html><body>Saved</body></html>"))
			}
		})

	mux.HandleFunc("/psc/SS/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("cmd") != "viewattach" {
			http.NotFound(w, r)
			return
		}
		p.mu.Lock()
		base := p.baseUrl
		p.mu.Unlock()
		fmt.Fprintf(w,
			`<html><head><meta http-equiv="refresh" content="2;URL=%s/document.pdf"></head></html>`,
			base)
	})

	mux.HandleFunc("/document.pdf", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		payload := p.payload
		p.mu.Unlock()
		w.Write(payload)
	})

	return mux
}

func startFixture(t *testing.T, portal *docsPortal) Client {
	server := httptest.NewServer(portal.handler())
	t.Cleanup(server.Close)
	portal.mu.Lock()
	portal.baseUrl = server.URL
	portal.mu.Unlock()

	coreClient, err := core.NewClient(context.Background(), core.ClientOptions{
		BaseUrl: server.URL,
	})
	if err != nil {
		t.Fatal(err)
	}
	return NewClient(coreClient)
}

func TestDownload(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/jobmine/docs")
	defer cleanup()

	portal := &docsPortal{
		documents: []string{"Resume", "Cover Letter"},
		payload:   []byte("%PDF-1.4 fake body"),
	}
	client := startFixture(t, portal)

	// three hops: action page embedding the command url, the command
	// page carrying a refresh directive, then the payload itself
	content, err := client.Download(context.Background(), 2, TypeResume)
	require.NoError(t, err)
	require.Equal(t, []byte("%PDF-1.4 fake body"), content)

	// document number 2 resolves to row position 1
	require.True(t, portal.sawAction("UW_CO_PDF_LINKS_UW_CO_DOC_VIEW$1"))

	_, err = client.Download(context.Background(), 1, TypePackage)
	require.NoError(t, err)
	require.True(t, portal.sawAction("UW_CO_PDF_LINKS_UW_CO_PACKAGE_VIEW$0"))

	_, err = client.Download(context.Background(), 1, Type("bogus"))
	require.ErrorIs(t, err, ErrUnknownDocumentType)

	_, err = client.Download(context.Background(), 7, TypeResume)
	require.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestUpload(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/jobmine/docs")
	defer cleanup()

	portal := &docsPortal{documents: []string{"Resume"}}
	client := startFixture(t, portal)

	path := filepath.Join(t.TempDir(), "resume.pdf")
	err := os.WriteFile(path, []byte("%PDF-1.4"), 0o644)
	if err != nil {
		t.Fatal(err)
	}

	err = client.Upload(context.Background(), path, UploadOptions{Name: "Fall Resume"})
	require.NoError(t, err)

	// a new slot was created, named, and received the file
	portal.mu.Lock()
	defer portal.mu.Unlock()
	require.Len(t, portal.documents, 2)
	require.Equal(t, "Fall Resume", portal.documents[1])
	require.Len(t, portal.uploads, 1)
	require.Equal(t, "resume.pdf", portal.uploads[0].filename)
	require.Equal(t, "12", portal.uploads[0].state)
}

func TestUploadExisting(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/jobmine/docs")
	defer cleanup()

	portal := &docsPortal{documents: []string{"Resume", "Cover Letter"}}
	client := startFixture(t, portal)

	path := filepath.Join(t.TempDir(), "updated.pdf")
	err := os.WriteFile(path, []byte("%PDF-1.4"), 0o644)
	if err != nil {
		t.Fatal(err)
	}

	err = client.Upload(context.Background(), path, UploadOptions{Existing: 2})
	require.NoError(t, err)

	portal.mu.Lock()
	documents := len(portal.documents)
	created := portal.sawActionLocked("UW_CO_PDF_WRK_UW_CO_DOC_CREATE")
	uploads := len(portal.uploads)
	portal.mu.Unlock()

	// re-uploading into an existing slot never creates a new one
	require.Equal(t, 2, documents)
	require.False(t, created)
	require.Equal(t, 1, uploads)

	err = client.Upload(context.Background(), path, UploadOptions{Existing: 9})
	require.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestUploadQuotaReached(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/jobmine/docs")
	defer cleanup()

	portal := &docsPortal{
		documents: []string{"One", "Two", "Three"},
		quotaFull: true,
	}
	client := startFixture(t, portal)

	path := filepath.Join(t.TempDir(), "extra.pdf")
	err := os.WriteFile(path, []byte("%PDF-1.4"), 0o644)
	if err != nil {
		t.Fatal(err)
	}

	err = client.Upload(context.Background(), path, UploadOptions{})
	require.ErrorIs(t, err, ErrMaximumDocumentsReached)
	require.False(t, portal.sawAction("UW_CO_PDF_WRK_UW_CO_DOC_CREATE"))
}

func TestDelete(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/jobmine/docs")
	defer cleanup()

	portal := &docsPortal{documents: []string{"Resume", "Cover Letter"}}
	client := startFixture(t, portal)
	ctx := context.Background()

	err := client.Delete(ctx, 2)
	require.NoError(t, err)
	require.True(t, portal.sawAction("UW_CO_PDF_WRK_UW_CO_DOC_DELETE$1"))

	portal.mu.Lock()
	remaining := len(portal.documents)
	portal.mu.Unlock()
	require.Equal(t, 1, remaining)

	err = client.Delete(ctx, 5)
	require.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestDeleteLastDocument(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/jobmine/docs")
	defer cleanup()

	portal := &docsPortal{documents: []string{"Resume"}}
	client := startFixture(t, portal)

	// refusing to delete the last document happens before any mutating
	// request is issued
	err := client.Delete(context.Background(), 1)
	require.ErrorIs(t, err, ErrCannotDeleteLastDocument)
	require.False(t, portal.sawAction("UW_CO_PDF_WRK_UW_CO_DOC_DELETE"))

	portal.mu.Lock()
	remaining := len(portal.documents)
	portal.mu.Unlock()
	require.Equal(t, 1, remaining)
}

package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `neosearch answers questions about PDF documents grouped into chat windows.

Concepts:
- Chat window: a named set of documents plus the conversation about them. Exactly one window is active.
- Document: a PDF uploaded into a window. The first upload into an empty window becomes its title.
- Evidence: the passages the backend retrieved to ground an answer.

Workflow:
1) list_sessions to see windows; create_session or select_session to pick one.
2) upload_documents to add PDFs to the active window.
3) ask to query them; get_evidence(message_id) for the supporting passages.
4) get_recent_activity shows what happened locally, including failures.

Docs:
- neosearch://docs/index
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "neosearch://docs/index",
		Name:        "docs_index",
		Title:       "neosearch docs index",
		Description: "How chat windows, documents and answers fit together.",
		Content: `# neosearch

## Chat windows

- ` + "`list_sessions`" + ` shows every window; the active one has ` + "`is_active: true`" + `.
- ` + "`select_session`" + ` switches windows and clears the visible conversation.
- ` + "`delete_session`" + ` on the active window activates the first remaining one.
- Selecting twice quickly keeps only the newest selection; the older call reports ` + "`SUPERSEDED`" + `.

## Documents

- ` + "`upload_documents`" + ` accepts local ` + "`paths`" + ` or base64 ` + "`files`" + `.
- Files upload one at a time. A failed file does not stop the batch.
- Only one batch per window runs at a time (` + "`UPLOAD_BUSY`" + `).

## Questions

- ` + "`ask`" + ` needs an active window with at least one document; otherwise it returns ` + "`skipped`" + `.
- When the backend is down the conversation gets a notice and the call returns ` + "`BACKEND_FAILED`" + `.
- Answers that arrive after switching windows are dropped.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}

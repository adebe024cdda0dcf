// Package repl is a line-oriented terminal front end for chat windows,
// uploads and questions.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/ganot/neosearch/internal/domain/activity"
	"github.com/ganot/neosearch/internal/domain/message"
	"github.com/ganot/neosearch/internal/domain/session"
	"github.com/ganot/neosearch/internal/domain/upload"
)

// Sessions is the chat-window surface the REPL drives.
type Sessions interface {
	Hydrate(ctx context.Context) error
	Sessions() []session.Session
	Active() (session.Session, error)
	Create(ctx context.Context) (session.Session, error)
	Select(ctx context.Context, sessionID string) error
	Delete(ctx context.Context, sessionID string) error
	Rename(ctx context.Context, sessionID, title string) bool
	Get(sessionID string) (session.Session, error)
	DeleteDocument(ctx context.Context, sessionID, docID string) error
}

type Uploader interface {
	Upload(ctx context.Context, files []upload.File) (*upload.Result, error)
}

type Searcher interface {
	Query(ctx context.Context, text string) (*message.Message, error)
	Evidence(messageID string) ([]message.Chunk, error)
}

type Conversation interface {
	Messages() []message.Message
}

type Journal interface {
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Config wires a REPL.
type Config struct {
	Sessions     Sessions
	Uploads      Uploader
	Search       Searcher
	Conversation Conversation
	Journal      Journal
	In           io.Reader
	Out          io.Writer
	Color        bool
	Logger       *slog.Logger
}

// REPL reads commands from In and writes results to Out.
type REPL struct {
	sessions     Sessions
	uploads      Uploader
	search       Searcher
	conversation Conversation
	journal      Journal
	in           io.Reader
	out          io.Writer
	logger       *slog.Logger

	title  *color.Color
	accent *color.Color
	muted  *color.Color
	fail   *color.Color
}

var errUsage = errors.New("usage")

// New creates a REPL.
func New(cfg Config) *REPL {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &REPL{
		sessions:     cfg.Sessions,
		uploads:      cfg.Uploads,
		search:       cfg.Search,
		conversation: cfg.Conversation,
		journal:      cfg.Journal,
		in:           cfg.In,
		out:          cfg.Out,
		logger:       logger,
		title:        color.New(color.FgCyan, color.Bold),
		accent:       color.New(color.FgGreen),
		muted:        color.New(color.FgHiBlack),
		fail:         color.New(color.FgRed),
	}
	for _, c := range []*color.Color{r.title, r.accent, r.muted, r.fail} {
		if cfg.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

// Run processes commands until quit, end of input or ctx is done.
func (r *REPL) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	r.println(r.title.Sprint("neosearch") + r.muted.Sprint(" (type help for commands)"))
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		fmt.Fprint(r.out, r.prompt())
		if !scanner.Scan() {
			r.println("")
			return scanner.Err()
		}
		quit, err := r.Exec(ctx, scanner.Text())
		if err != nil {
			r.println(r.fail.Sprintf("error: %v", err))
		}
		if quit {
			return nil
		}
	}
}

func (r *REPL) prompt() string {
	active, err := r.sessions.Active()
	if err != nil {
		return "neosearch> "
	}
	return r.accent.Sprintf("[%s]", active.Title) + " > "
}

// Exec runs a single command line and reports whether the user asked to quit.
func (r *REPL) Exec(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(cmd) {
	case "quit", "exit":
		return true, nil
	case "help":
		r.help()
	case "list", "ls":
		r.list()
	case "refresh":
		if err := r.sessions.Hydrate(ctx); err != nil {
			return false, err
		}
		r.list()
	case "new":
		created, err := r.sessions.Create(ctx)
		if err != nil {
			return false, err
		}
		r.println("created " + r.accent.Sprint(created.Title) + r.muted.Sprint(" "+created.ID))
	case "select", "use":
		id, err := r.resolve(rest)
		if err != nil {
			return false, err
		}
		if err := r.sessions.Select(ctx, id); err != nil {
			return false, err
		}
		r.docs()
	case "delete", "rm":
		id, err := r.resolve(rest)
		if err != nil {
			return false, err
		}
		if err := r.sessions.Delete(ctx, id); err != nil {
			return false, err
		}
		r.println("deleted " + id)
	case "rename":
		target, title, _ := strings.Cut(rest, " ")
		title = strings.TrimSpace(title)
		if title == "" {
			return false, fmt.Errorf("%w: rename <id|#> <title>", errUsage)
		}
		id, err := r.resolve(target)
		if err != nil {
			return false, err
		}
		if !r.sessions.Rename(ctx, id, title) {
			return false, fmt.Errorf("rename of %s did not apply", id)
		}
		r.println("renamed to " + r.accent.Sprint(title))
	case "upload":
		return false, r.upload(ctx, strings.Fields(rest))
	case "rmdoc":
		if rest == "" {
			return false, fmt.Errorf("%w: rmdoc <doc-id>", errUsage)
		}
		active, err := r.sessions.Active()
		if err != nil {
			return false, err
		}
		if err := r.sessions.DeleteDocument(ctx, active.ID, rest); err != nil {
			return false, err
		}
		r.docs()
	case "docs":
		r.docs()
	case "log":
		r.log()
	case "evidence":
		return false, r.evidence(rest)
	case "activity":
		return false, r.activity(ctx, rest)
	case "ask":
		return false, r.ask(ctx, rest)
	default:
		return false, r.ask(ctx, line)
	}
	return false, nil
}

// resolve accepts a chat window id or its 1-based position in list.
func (r *REPL) resolve(arg string) (string, error) {
	arg = strings.TrimPrefix(strings.TrimSpace(arg), "#")
	if arg == "" {
		return "", fmt.Errorf("%w: expected a chat window id or number", errUsage)
	}
	sessions := r.sessions.Sessions()
	if n, err := strconv.Atoi(arg); err == nil && n >= 1 && n <= len(sessions) {
		return sessions[n-1].ID, nil
	}
	return arg, nil
}

func (r *REPL) help() {
	r.println(`commands:
  list                    show chat windows
  refresh                 reload chat windows from the backend
  new                     create and open a chat window
  select <id|#>           open a chat window
  delete <id|#>           delete a chat window
  rename <id|#> <title>   rename a chat window
  upload <path>...        upload documents into the open window
  rmdoc <doc-id>          remove a document from the open window
  docs                    list documents in the open window
  ask <question>          ask a question (bare text works too)
  log                     show the conversation
  evidence <message-id>   show the passages behind an answer
  activity [n]            show recent activity
  quit                    leave`)
}

func (r *REPL) list() {
	sessions := r.sessions.Sessions()
	if len(sessions) == 0 {
		r.println(r.muted.Sprint("no chat windows; use new"))
		return
	}
	for i, sess := range sessions {
		marker := " "
		title := sess.Title
		if sess.IsActive {
			marker = "*"
			title = r.accent.Sprint(title)
		}
		r.println(fmt.Sprintf("%s %2d. %s %s", marker, i+1, title,
			r.muted.Sprintf("(%d docs) %s", len(sess.Documents), sess.ID)))
	}
}

func (r *REPL) docs() {
	active, err := r.sessions.Active()
	if err != nil {
		r.println(r.muted.Sprint("no chat window is open"))
		return
	}
	r.println(r.title.Sprint(active.Title))
	if !active.HasDocuments() {
		r.println(r.muted.Sprint("  no documents; use upload <path>"))
		return
	}
	for _, doc := range active.Documents {
		r.println("  " + doc.Name + r.muted.Sprint(" "+doc.UUID))
	}
}

func (r *REPL) upload(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("%w: upload <path>...", errUsage)
	}
	files := make([]upload.File, 0, len(paths))
	for _, path := range paths {
		files = append(files, upload.PathFile(path))
	}
	result, err := r.uploads.Upload(ctx, files)
	if err != nil {
		return err
	}
	if result == nil {
		r.println(r.muted.Sprint("nothing uploaded; open a chat window first"))
		return nil
	}
	for _, doc := range result.Uploaded {
		r.println(r.accent.Sprint("uploaded ") + doc.Name)
	}
	for _, failed := range result.Failed {
		r.println(r.fail.Sprintf("failed %s: %v", failed.Name, failed.Err))
	}
	if result.RenamedTo != "" {
		r.println(r.muted.Sprint("title set to " + result.RenamedTo))
	}
	return nil
}

func (r *REPL) ask(ctx context.Context, question string) error {
	msg, err := r.search.Query(ctx, question)
	if err != nil {
		return err
	}
	if msg == nil {
		r.println(r.muted.Sprint("nothing asked; open a chat window with documents and type a question"))
		return nil
	}
	r.printMessage(*msg)
	return nil
}

func (r *REPL) log() {
	msgs := r.conversation.Messages()
	if len(msgs) == 0 {
		r.println(r.muted.Sprint("no messages"))
		return
	}
	for _, msg := range msgs {
		r.printMessage(msg)
	}
}

func (r *REPL) printMessage(msg message.Message) {
	if msg.Sender == message.SenderUser {
		r.println(r.title.Sprint("you: ") + msg.Text)
		return
	}
	r.println(r.accent.Sprint("neosearch: ") + msg.Text)
	if msg.HasEvidence() {
		r.println(r.muted.Sprintf("  %d sources; evidence %s", len(msg.Evidence), msg.ID))
	}
}

func (r *REPL) evidence(messageID string) error {
	if messageID == "" {
		return fmt.Errorf("%w: evidence <message-id>", errUsage)
	}
	chunks, err := r.search.Evidence(messageID)
	if err != nil {
		return err
	}
	for i, chunk := range chunks {
		r.println(r.title.Sprintf("[%d] %s p.%d", i+1, chunk.SourceDocumentName, chunk.PageNumber) +
			r.muted.Sprintf(" score %.2f", chunk.Score))
		r.println("    " + chunk.Text)
	}
	return nil
}

func (r *REPL) activity(ctx context.Context, arg string) error {
	limit := 20
	if arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: activity [n]", errUsage)
		}
		limit = n
	}
	entries, err := r.journal.GetRecentActivity(ctx, activity.ListActivityOptions{Limit: limit})
	if err != nil {
		return err
	}
	for _, entry := range entries {
		r.println(r.muted.Sprint(entry.CreatedAt.Local().Format("15:04:05")) + " " +
			string(entry.ActivityType) + " " + entry.Summary)
	}
	return nil
}

func (r *REPL) println(line string) {
	if _, err := fmt.Fprintln(r.out, line); err != nil {
		r.logger.Debug("repl write failed", "error", err)
	}
}

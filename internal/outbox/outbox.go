// Package outbox hands rendered drafts to a delivery backend.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/candidate"
	"github.com/spigell/resume-screener/internal/extract"
)

// Message is one outgoing email.
type Message struct {
	To       string
	From     string
	Subject  string
	Body     string
	Filename string
}

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// DirSender stores every message as an .eml file in Dir.
type DirSender struct {
	Dir string
	now func() time.Time
}

func NewDirSender(dir string) (*DirSender, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("outbox directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create outbox %s: %w", dir, err)
	}
	return &DirSender{Dir: dir, now: time.Now}, nil
}

func (s *DirSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data := []byte(s.render(msg))
	for _, name := range emlNames(msg.Filename) {
		path := filepath.Join(s.Dir, name+".eml")
		err := writeExclusive(path, data)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		return nil
	}
	return fmt.Errorf("no free file name for %s in %s", msg.Filename, s.Dir)
}

// emlNames lists the file stems tried for a message, most readable first.
// The last one is random so two resumes never share an .eml file.
func emlNames(filename string) []string {
	stem := extract.FallbackName(filename)
	if stem == "" || stem == "." {
		return []string{uuid.NewString()}
	}

	names := []string{stem}
	if ext := strings.TrimPrefix(filepath.Ext(filename), "."); ext != "" {
		names = append(names, stem+"_"+ext)
	}
	return append(names, stem+"_"+uuid.NewString()[:8])
}

func writeExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *DirSender) render(msg Message) string {
	var b strings.Builder
	header := func(k, v string) {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(headerValue(v))
		b.WriteString("\r\n")
	}

	header("From", msg.From)
	header("To", msg.To)
	header("Subject", msg.Subject)
	header("Date", s.now().Format(time.RFC1123Z))
	header("Message-ID", "<"+uuid.NewString()+"@resume-screener>")
	header("MIME-Version", "1.0")
	header("Content-Type", "text/plain; charset=UTF-8")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(msg.Body, "\r\n", "\n"), "\n", "\r\n"))
	b.WriteString("\r\n")
	return b.String()
}

// headerValue keeps a header on one line.
func headerValue(v string) string {
	return strings.Join(strings.Fields(v), " ")
}

// NopSender only logs what would have been sent.
type NopSender struct {
	Logger *zap.Logger
}

func (s NopSender) Send(_ context.Context, msg Message) error {
	if s.Logger != nil {
		s.Logger.Info("email draft not sent",
			zap.String("to", msg.To),
			zap.String("filename", msg.Filename),
		)
	}
	return nil
}

// Options are the envelope settings shared by every message of a run.
type Options struct {
	From    string
	Subject string
}

// Stats counts the outcome of a delivery run.
type Stats struct {
	Sent    int
	Skipped int
	Failed  int
}

// Deliver sends the draft of every record that has both an email and a
// draft. A failed message is logged and counted; cancellation stops the run.
func Deliver(ctx context.Context, sender Sender, records []*candidate.Record, opts Options, logger *zap.Logger) (Stats, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var stats Stats
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if r.Email == "" || strings.TrimSpace(r.EmailDraft) == "" {
			stats.Skipped++
			continue
		}

		msg := Message{
			To:       r.Email,
			From:     opts.From,
			Subject:  opts.Subject,
			Body:     r.EmailDraft,
			Filename: r.Filename,
		}
		if err := sender.Send(ctx, msg); err != nil {
			stats.Failed++
			logger.Warn("sending email draft failed",
				zap.String("filename", r.Filename),
				zap.Error(err),
			)
			continue
		}
		stats.Sent++
	}

	logger.Info("email drafts delivered",
		zap.Int("sent", stats.Sent),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
	)
	return stats, nil
}

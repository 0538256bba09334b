// ABOUTME: Line-oriented chat interface over a conversation library
// ABOUTME: Plain lines are sent; slash commands manage attachments and chats
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/cognira/velmora-go/pkg/chat"
)

const helpText = `Type a message and press enter to send it.
  /file <path>          attach a file to the next message
  /edit <n> <text>      rewrite message n and everything after it
  /suggest <draft>      suggest ways to continue a draft
  /report <n>           report a problem with message n
  /history              show the current chat
  /new                  start a new chat
  /list                 list chats
  /open <n>             switch to chat n
  /delete <n>           delete chat n
  /help                 show this help
  /quit                 exit`

type repl struct {
	library  *chat.Library
	in       *bufio.Scanner
	out      io.Writer
	savePath string
	logger   *zap.Logger

	attachment *chat.FileRef
}

func newREPL(library *chat.Library, in io.Reader, out io.Writer, savePath string, logger *zap.Logger) *repl {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &repl{
		library:  library,
		in:       scanner,
		out:      out,
		savePath: savePath,
		logger:   logger,
	}
}

func (r *repl) run(ctx context.Context) error {
	c := r.library.Active()
	fmt.Fprintf(r.out, "Contexta - %s\n", c.Title())
	r.printMessages(c.Messages())
	fmt.Fprintln(r.out, "Type /help for commands.")

	for {
		fmt.Fprint(r.out, "> ")
		if !r.in.Scan() {
			return r.in.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(r.in.Text())
		quit, err := r.handle(ctx, line)
		if err != nil {
			fmt.Fprintf(r.out, "! %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

// handle runs one input line and reports whether to exit
func (r *repl) handle(ctx context.Context, line string) (bool, error) {
	if !strings.HasPrefix(line, "/") {
		return false, r.send(ctx, line)
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		fmt.Fprintln(r.out, helpText)
	case "/file":
		return false, r.attach(arg)
	case "/edit":
		return false, r.edit(ctx, arg)
	case "/suggest":
		return false, r.suggest(ctx, arg)
	case "/report":
		return false, r.report(arg)
	case "/history":
		r.printMessages(r.library.Active().Messages())
	case "/new":
		c := r.library.New()
		r.printMessages(c.Messages())
		return false, r.save()
	case "/list":
		r.printList()
	case "/open":
		return false, r.open(arg)
	case "/delete":
		return false, r.remove(arg)
	default:
		return false, fmt.Errorf("unknown command %s, try /help", cmd)
	}
	return false, nil
}

func (r *repl) send(ctx context.Context, text string) error {
	c := r.library.Active()
	turn, err := c.Send(ctx, text, r.attachment)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			return nil
		}
		if errors.Is(err, chat.ErrFileTooLarge) {
			r.attachment = nil
		}
		return err
	}
	r.attachment = nil

	if turn.Compacted {
		fmt.Fprintln(r.out, "(earlier messages were summarized)")
	}
	fmt.Fprintf(r.out, "Velmora: %s\n", turn.Reply.Text)
	return r.save()
}

func (r *repl) attach(path string) error {
	if path == "" {
		return fmt.Errorf("usage: /file <path>")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read attachment: %w", err)
	}
	mtype := mimetype.Detect(data)

	r.attachment = &chat.FileRef{Name: filepath.Base(path), MIMEType: mtype.String(), Data: data}
	fmt.Fprintf(r.out, "Attached %s (%s, %d bytes)\n", r.attachment.Name, r.attachment.MIMEType, len(data))
	return nil
}

func (r *repl) edit(ctx context.Context, arg string) error {
	n, text, _ := strings.Cut(arg, " ")
	msg, err := r.messageAt(n)
	if err != nil {
		return err
	}

	turn, err := r.library.Active().Edit(ctx, msg.ID, strings.TrimSpace(text))
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Velmora: %s\n", turn.Reply.Text)
	return r.save()
}

func (r *repl) suggest(ctx context.Context, draft string) error {
	suggestions, err := r.library.Active().Suggest(ctx, draft)
	if err != nil {
		r.logger.Warn("could not fetch suggestions", zap.Error(err))
		return nil
	}
	if len(suggestions) == 0 {
		fmt.Fprintln(r.out, "(no suggestions)")
		return nil
	}
	for i, s := range suggestions {
		fmt.Fprintf(r.out, "  %d. %s\n", i+1, s)
	}
	return nil
}

func (r *repl) report(arg string) error {
	msg, err := r.messageAt(arg)
	if err != nil {
		return err
	}
	if _, err := r.library.Active().Report(msg.ID); err != nil {
		return err
	}
	fmt.Fprintln(r.out, "Thank you for your feedback. The issue has been logged for review.")
	return nil
}

func (r *repl) open(arg string) error {
	c, err := r.chatAt(arg)
	if err != nil {
		return err
	}
	if _, err := r.library.Select(c.ID()); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Contexta - %s\n", c.Title())
	r.printMessages(c.Messages())
	return nil
}

func (r *repl) remove(arg string) error {
	c, err := r.chatAt(arg)
	if err != nil {
		return err
	}
	if err := r.library.Delete(c.ID()); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Deleted %q\n", c.Title())
	return r.save()
}

func (r *repl) save() error {
	if r.savePath == "" {
		return nil
	}
	if err := r.library.SaveFile(r.savePath); err != nil {
		r.logger.Error("failed to save chat history", zap.Error(err))
		return err
	}
	return nil
}

func (r *repl) messageAt(n string) (chat.Message, error) {
	msgs := r.library.Active().Messages()
	i, err := strconv.Atoi(n)
	if err != nil || i < 1 || i > len(msgs) {
		return chat.Message{}, fmt.Errorf("no message %q", n)
	}
	return msgs[i-1], nil
}

func (r *repl) chatAt(n string) (*chat.Conversation, error) {
	list := r.library.List()
	i, err := strconv.Atoi(n)
	if err != nil || i < 1 || i > len(list) {
		return nil, fmt.Errorf("no chat %q", n)
	}
	return list[i-1], nil
}

func (r *repl) printMessages(msgs []chat.Message) {
	for i, m := range msgs {
		who := "You"
		if m.Role == chat.RoleModel {
			who = "Velmora"
		}
		text := m.Text
		if m.File != nil {
			text = strings.TrimSpace(fmt.Sprintf("%s [%s]", text, m.File.Name))
		}
		fmt.Fprintf(r.out, "%3d  %s: %s\n", i+1, who, text)
	}
}

func (r *repl) printList() {
	active := r.library.Active().ID()
	for i, c := range r.library.List() {
		mark := " "
		if c.ID() == active {
			mark = "*"
		}
		fmt.Fprintf(r.out, "%s %d. %s\n", mark, i+1, c.Title())
	}
}

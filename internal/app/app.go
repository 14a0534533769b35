package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"readnook/internal/album"
	"readnook/internal/assistant"
	"readnook/internal/library"
	"readnook/pkg/domain"
)

// promptTokenLimit is the image backend's input budget. Longer prompts
// are summarized before generation.
const promptTokenLimit = 75

// Config wires the app core's collaborators.
type Config struct {
	Library   *library.Store
	Album     *album.Store
	Assistant *assistant.Client
}

// App is the reading-session core: it owns the transient chat transcript
// and ties the assistant client to the library and album stores. All
// failures are converted to chat messages at the operation boundary.
type App struct {
	library   *library.Store
	album     *album.Store
	assistant *assistant.Client

	mu       sync.Mutex
	messages []domain.ChatMessage

	busy      atomic.Bool
	imageBusy atomic.Bool
}

// New validates and assembles the app core.
func New(cfg Config) (*App, error) {
	if cfg.Library == nil {
		return nil, fmt.Errorf("library store required")
	}
	if cfg.Album == nil {
		return nil, fmt.Errorf("album store required")
	}
	if cfg.Assistant == nil {
		return nil, fmt.Errorf("assistant client required")
	}
	return &App{
		library:   cfg.Library,
		album:     cfg.Album,
		assistant: cfg.Assistant,
	}, nil
}

// Library exposes the library store to the HTTP surface.
func (a *App) Library() *library.Store { return a.library }

// Album exposes the album store to the HTTP surface.
func (a *App) Album() *album.Store { return a.album }

// Messages returns a snapshot of the session transcript.
func (a *App) Messages() []domain.ChatMessage {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.ChatMessage, len(a.messages))
	copy(out, a.messages)
	return out
}

// Reset discards the transcript, as when the reader navigates away.
func (a *App) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = nil
}

// Busy reports whether any assistant call is in flight. The UI layer uses
// this to disable its controls; the core performs no deduplication.
func (a *App) Busy() bool { return a.busy.Load() }

// ImageBusy reports whether an image generation is in flight.
func (a *App) ImageBusy() bool { return a.imageBusy.Load() }

// Ask sends a question about the open book and returns the bot reply.
// Blank questions are ignored (ok=false). Failures become fallback chat
// messages, never errors.
func (a *App) Ask(ctx context.Context, docID, question string) (domain.ChatMessage, bool) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.ChatMessage{}, false
	}
	a.busy.Store(true)
	defer a.busy.Store(false)

	a.push(domain.ChatMessage{Sender: domain.SenderUser, Text: question})

	answer, err := a.assistant.Ask(ctx, docID, question, assistant.DefaultAskK)
	var reply domain.ChatMessage
	switch {
	case err == nil:
		reply = bot(answer)
	case errors.Is(err, assistant.ErrEmptyResult), isBackendError(err):
		reply = bot(msgNoAnswer)
	default:
		reply = bot(msgAskFailed)
	}
	a.push(reply)
	return reply, true
}

// SummarizeSelection condenses the selected passage into the transcript.
func (a *App) SummarizeSelection(ctx context.Context, selection string) (domain.ChatMessage, bool) {
	selection = strings.TrimSpace(selection)
	if selection == "" {
		return domain.ChatMessage{}, false
	}
	a.busy.Store(true)
	defer a.busy.Store(false)

	a.push(domain.ChatMessage{Sender: domain.SenderUser, Text: selection + suffixSummarize})

	summary, err := a.assistant.Summarize(ctx, selection, assistant.DefaultSummarySentences)
	var reply domain.ChatMessage
	switch {
	case err == nil:
		reply = bot(summary)
	case errors.Is(err, assistant.ErrEmptyResult), isBackendError(err):
		reply = bot(msgNoSummary)
	default:
		reply = bot(msgSummaryFailed)
	}
	a.push(reply)
	return reply, true
}

// GenerateFromSelection turns the selected passage into an image. Prompts
// over the token budget are summarized first (and the substitution is
// announced); a failed summarization degrades to the original prompt. A
// successful image is appended to the transcript and saved to the album —
// the single cross-store write in the system.
func (a *App) GenerateFromSelection(ctx context.Context, docID, selection string) (domain.ChatMessage, bool) {
	prompt := strings.TrimSpace(selection)
	if prompt == "" {
		return domain.ChatMessage{}, false
	}
	a.busy.Store(true)
	a.imageBusy.Store(true)
	defer func() {
		a.imageBusy.Store(false)
		a.busy.Store(false)
	}()

	a.push(domain.ChatMessage{Sender: domain.SenderUser, Text: prompt + suffixGenerate})

	finalPrompt := prompt
	if len(strings.Fields(prompt)) > promptTokenLimit {
		summary, err := a.assistant.Summarize(ctx, prompt, assistant.DefaultSummarySentences)
		if err != nil {
			a.push(bot(msgGuardFailed))
		} else {
			finalPrompt = summary
			a.push(bot(msgGuardNotice + summary))
		}
	}

	b64, err := a.assistant.GenerateImage(ctx, finalPrompt, assistant.DefaultImageSteps)
	if err != nil {
		reply := bot(generateFailureText(err))
		a.push(reply)
		return reply, true
	}

	src := "data:image/png;base64," + b64
	reply := domain.ChatMessage{Sender: domain.SenderBot, Text: msgImageDone, Image: src}
	a.push(reply)

	if _, aerr := a.album.AddGenerated(ctx, src, finalPrompt, finalPrompt, a.bookTitle(ctx, docID)); aerr != nil {
		a.push(bot(msgAlbumFailed))
	} else {
		a.push(bot(msgAlbumSaved))
	}
	return reply, true
}

// BookText returns the normalized text of a book: locally stored content
// for user books, a backend fetch for built-in ones.
func (a *App) BookText(ctx context.Context, id string) (string, error) {
	if domain.IsUserBook(id) {
		book, ok := a.library.Get(ctx, id)
		if !ok {
			return "", fmt.Errorf("unknown book %s", id)
		}
		return NormalizeBookText(book.Content), nil
	}
	text, err := a.assistant.BookText(ctx, id)
	if err != nil {
		return "", err
	}
	return NormalizeBookText(text), nil
}

func (a *App) bookTitle(ctx context.Context, docID string) string {
	if book, ok := a.library.Get(ctx, docID); ok && book.Title != "" {
		return book.Title
	}
	return docID
}

func (a *App) push(msg domain.ChatMessage) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, msg)
}

func bot(text string) domain.ChatMessage {
	return domain.ChatMessage{Sender: domain.SenderBot, Text: text}
}

func isBackendError(err error) bool {
	var berr *assistant.BackendError
	return errors.As(err, &berr)
}

func generateFailureText(err error) string {
	switch {
	case errors.Is(err, assistant.ErrTimeout):
		return msgImageTimeout
	case errors.Is(err, assistant.ErrEmptyResult):
		return msgImageEmpty
	}
	var berr *assistant.BackendError
	if errors.As(err, &berr) {
		detail := berr.Detail
		if detail == "" {
			detail = msgImageDefault
		}
		return "❌ " + detail
	}
	return msgImageFailed
}

package webview

import (
	"os"

	"github.com/opd-ai/go-ladybird/internal/ipc"
)

// didRequestFile opens a file for the renderer and answers with either the
// handle or the error number, echoing the request ID.
func (b *Bridge) didRequestFile(p ipc.FileRequestParams) {
	conn := b.client.conn
	if conn == nil {
		return
	}
	b.metrics.IncrementFileRequests()

	f, err := b.opts.FileOpener(p.Path)
	if err != nil {
		b.metrics.IncrementFileRequestErrors()
		b.logger.Debug("renderer file request failed", "path", p.Path, "request", p.RequestID, "error", err)
		if err := conn.HandleFileReturn(b.ctx, errnoOf(err), nil, p.RequestID); err != nil {
			b.logger.Warn("answering file request", "request", p.RequestID, "error", err)
		}
		return
	}

	if old, ok := b.client.files[p.RequestID]; ok {
		old.Close()
	}
	b.client.files[p.RequestID] = f

	file := &ipc.File{FD: int(f.Fd()), PID: os.Getpid()}
	if err := conn.HandleFileReturn(b.ctx, 0, file, p.RequestID); err != nil {
		b.logger.Warn("answering file request", "request", p.RequestID, "error", err)
	}
}

// didCloseFile releases a file handed out by didRequestFile.
func (b *Bridge) didCloseFile(p ipc.FileReleaseParams) {
	f, ok := b.client.files[p.RequestID]
	if !ok {
		return
	}
	delete(b.client.files, p.RequestID)
	if err := f.Close(); err != nil {
		b.logger.Debug("closing renderer file", "request", p.RequestID, "error", err)
	}
}

func (b *Bridge) closeFiles() {
	for id, f := range b.client.files {
		if err := f.Close(); err != nil {
			b.logger.Debug("closing renderer file", "request", id, "error", err)
		}
	}
}

package server

import (
	"io"
	"net/http"

	"http-toolkit/http/coding"
	iolib "http-toolkit/lib/io"
)

// encodingWriter applies a content coding to everything the handler writes.
// The coder is created on the first write, after the header is sent.
type encodingWriter struct {
	http.ResponseWriter

	applier *coding.Applier
	coding  coding.Coding
	encoder io.WriteCloser

	wroteHeader bool
	passthrough bool
}

func newEncodingWriter(w http.ResponseWriter, applier *coding.Applier, c coding.Coding) *encodingWriter {
	return &encodingWriter{ResponseWriter: w, applier: applier, coding: c}
}

func (w *encodingWriter) WriteHeader(code int) {
	if w.wroteHeader {
		w.ResponseWriter.WriteHeader(code)
		return
	}
	w.wroteHeader = true

	h := w.Header()
	// Responses without content can't be coded.
	// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-6.4.1-8
	if code < http.StatusOK || code == http.StatusNoContent || code == http.StatusNotModified {
		h.Del("Content-Encoding")
		w.passthrough = true
	}
	// Length of the coded content is unknown beforehand.
	h.Del("Content-Length")

	w.ResponseWriter.WriteHeader(code)
}

func (w *encodingWriter) Write(p []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if w.passthrough {
		return w.ResponseWriter.Write(p)
	}

	if w.encoder == nil {
		encoder, err := w.applier.Encode(iolib.NopWriteCloser(w.ResponseWriter), []coding.Coding{w.coding})
		if err != nil {
			return 0, err
		}
		w.encoder = encoder
	}

	n, err := iolib.WriteFull(w.encoder, p)
	return int(n), err
}

// Close flushes the coder. An empty body still gets coded, as Content-Encoding is already promised.
func (w *encodingWriter) Close() error {
	if w.passthrough {
		return nil
	}
	if w.encoder == nil {
		if _, err := w.Write(nil); err != nil {
			return err
		}
	}
	if w.passthrough {
		return nil
	}

	return w.encoder.Close()
}

func (w *encodingWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

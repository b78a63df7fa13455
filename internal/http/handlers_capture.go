package http

import (
	"net/http"
	"strconv"
)

func (s *Server) handleCaptureReceipt(w http.ResponseWriter, r *http.Request) {
	data, mimeType, err := readUpload(w, r, s.maxUpload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	g, err := s.capture.AnalyzeReceipt(r.Context(), data, mimeType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleCaptureVoice(w http.ResponseWriter, r *http.Request) {
	data, mimeType, err := readUpload(w, r, s.maxUpload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.capture.CaptureVoice(r.Context(), data, mimeType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type textRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleCaptureText(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	g, err := s.capture.ParseText(r.Context(), req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleSpeak(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	audio, err := s.capture.Speak(r.Context(), req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}

package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/asiaspanel/voicegate/internal/assets"
	"github.com/asiaspanel/voicegate/internal/clone"
	"github.com/asiaspanel/voicegate/internal/errorsx"
	"github.com/asiaspanel/voicegate/internal/orchestrator"
	"github.com/asiaspanel/voicegate/internal/registry"
)

const maxUploadBytes = 25 << 20

type translateRequest struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Target string `json:"target"`
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if req.Source == "" {
		req.Source = "auto"
	}
	if req.Target == "" {
		req.Target = "en"
	}

	// No fallback chain for translation: primary provider or a mock that
	// keeps local testing alive without a key.
	if err := s.translator.Available(); err != nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"translated": reverse(req.Text),
			"target":     req.Target,
			"mock":       true,
		})
		return
	}

	translated, err := s.translator.Translate(r.Context(), req.Text, req.Source, req.Target)
	if err != nil {
		s.log.Warn("translation failed, returning mock", "reason", errorsx.Reason(err), "error", err)
		writeJSON(w, http.StatusOK, map[string]any{
			"translated": reverse(req.Text),
			"target":     req.Target,
			"mock":       true,
			"error":      err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"translated": translated,
		"target":     req.Target,
		"mock":       false,
	})
}

type ttsRequest struct {
	Text   string `json:"text"`
	Voice  string `json:"voice"`
	Format string `json:"format"`
}

func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	var req ttsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	result, err := s.orch.Synthesize(r.Context(), orchestrator.Request{
		Text:   req.Text,
		Voice:  req.Voice,
		Format: req.Format,
	})
	if err != nil {
		if errorsx.HasReason(err, errorsx.ReasonInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		// Faults outside the documented fallback paths, e.g. disk full.
		s.log.Error("synthesis failed internally", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := map[string]any{
		"url":  result.Reference.URL,
		"mock": result.Mock,
	}
	if result.Reference.Storage == "blob" {
		resp["storage"] = "blob"
		resp["blob_url"] = result.Reference.BlobURL
	}
	if detail := firstNonEmpty(result.ErrorDetail, result.Reference.Detail); detail != "" {
		resp["error"] = detail
	}
	if result.OpenAIError != "" {
		resp["openai_error"] = result.OpenAIError
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, _ *http.Request) {
	doc, err := s.reg.Load()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	var doc registry.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := s.reg.Replace(doc); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleUploadSample(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable upload")
		return
	}

	sample, err := s.clones.UploadSample(r.FormValue("name"), header.Filename, data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"voice_id":   sample.ID,
		"name":       sample.Name,
		"size_bytes": sample.SizeBytes,
	})
}

type cloneRequest struct {
	VoiceID string `json:"voice_id"`
	Name    string `json:"name"`
}

func (s *Server) handleClone(w http.ResponseWriter, r *http.Request) {
	var req cloneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.VoiceID == "" {
		writeError(w, http.StatusBadRequest, "voice_id is required")
		return
	}

	voice, err := s.clones.Clone(r.Context(), req.VoiceID, req.Name)
	if err != nil {
		if errorsx.HasReason(err, errorsx.ReasonNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"ok":    false,
			"error": clone.ErrorMessage(err),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":            true,
		"voice_id":      voice.LocalID,
		"elevenlabs_id": voice.ElevenLabsID,
		"name":          voice.Name,
	})
}

func (s *Server) handleListVoices(w http.ResponseWriter, r *http.Request) {
	doc, err := s.reg.Load()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	cloned, err := s.clones.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]map[string]any, 0, len(cloned))
	for _, v := range cloned {
		out = append(out, map[string]any{
			"voice_id":      v.LocalID,
			"elevenlabs_id": v.ElevenLabsID,
			"name":          v.Name,
			"created_at":    v.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"voices":        doc.Voices,
		"cloned_voices": out,
	})
}

func (s *Server) handleDeleteVoice(w http.ResponseWriter, r *http.Request) {
	err := s.clones.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		if errorsx.HasReason(err, errorsx.ReasonNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	data, err := s.resolver.Fetch(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusNotFound, "audio not found")
		return
	}
	serveAudio(w, name, data)
}

func (s *Server) handleStorage(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	data, err := s.store.Read(name)
	if err != nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	serveAudio(w, name, data)
}

func (s *Server) handleLogin(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"token": s.sessions.Issue()})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Revoke(bearerToken(r))
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"valid": s.sessions.Valid(bearerToken(r))})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

func serveAudio(w http.ResponseWriter, name string, data []byte) {
	w.Header().Set("Content-Type", assets.ContentType(name))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func reverse(text string) string {
	runes := []rune(text)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

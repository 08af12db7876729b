package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/jonathan/datedetective/internal/db"
	"github.com/jonathan/datedetective/internal/detective"
	"github.com/jonathan/datedetective/internal/ingestion"
	"github.com/jonathan/datedetective/internal/server/middleware"
	"github.com/jonathan/datedetective/internal/types"
	"go.uber.org/zap"
)

// validatable is implemented by every request type.
type validatable interface {
	Validate() error
}

// decodeRequest reads a JSON body into req and validates it. The raw body is
// returned for hashing.
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request, req validatable) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &ErrValidation{Message: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)}
		}
		return nil, &ErrValidation{Message: "failed to read request body"}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(req); err != nil {
		return nil, &ErrValidation{Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return body, nil
}

// detectiveFor returns the server's detective, switched to strict widths when asked.
func (s *Server) detectiveFor(strict bool) *detective.Detective {
	if strict && !s.detective.IsStrict() {
		return s.detective.Strict(true)
	}
	return s.detective
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, types.HealthResponse{
		Status:   "ok",
		Tagger:   s.detective.TaggerName(),
		Database: s.runs != nil,
	})
}

func (s *Server) handleFormat(w http.ResponseWriter, r *http.Request) {
	var req types.FormatRequest
	if _, err := s.decodeRequest(w, r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}

	format, err := s.detective.Format(r.Context(), req.Date)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, types.FormatResponse{Format: format})
}

func (s *Server) handleDateTime(w http.ResponseWriter, r *http.Request) {
	var req types.DateTimeRequest
	if _, err := s.decodeRequest(w, r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}

	d := s.detectiveFor(req.Strict)
	format, err := d.Format(r.Context(), req.Date)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	t, err := d.Parse(req.Date, format)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, types.DateTimeResponse{Format: format, DateTime: t})
}

func (s *Server) handleListFormat(w http.ResponseWriter, r *http.Request) {
	var req types.ListRequest
	if _, err := s.decodeRequest(w, r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}

	tally, err := s.detective.Consensus(r.Context(), req.Dates)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, types.ListFormatResponse{
		Format: tally.Winner().Format,
		Tally:  tallyEntries(tally),
		RunID:  s.saveRun(r, tally, false, "", ingestion.HashStrings(req.Dates)),
	})
}

func (s *Server) handleListDateTime(w http.ResponseWriter, r *http.Request) {
	var req types.ListRequest
	if _, err := s.decodeRequest(w, r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}

	res, err := s.detectiveFor(req.Strict).ResolveList(r.Context(), req.Dates)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, types.ListDateTimeResponse{
		Format:    res.Format,
		DateTimes: res.Times,
		Tally:     tallyEntries(res.Tally),
		RunID:     s.saveRun(r, res.Tally, req.Strict, "", ingestion.HashStrings(req.Dates)),
	})
}

func (s *Server) handleRecordsFormat(w http.ResponseWriter, r *http.Request) {
	var req types.RecordsRequest
	body, err := s.decodeRequest(w, r, &req)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	res, err := s.resolveRecords(r.Context(), &req, false)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, types.RecordsResponse{
		Format: res.Format,
		Tally:  tallyEntries(res.Tally),
		RunID:  s.saveRun(r, res.Tally, false, req.Key, ingestion.NewMetadata(body, "", ingestion.FormatJSON).Hash),
	})
}

func (s *Server) handleRecordsDateTime(w http.ResponseWriter, r *http.Request) {
	var req types.RecordsRequest
	body, err := s.decodeRequest(w, r, &req)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	res, err := s.resolveRecords(r.Context(), &req, true)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, types.RecordsResponse{
		Format:  res.Format,
		Records: res.Records,
		Tally:   tallyEntries(res.Tally),
		RunID:   s.saveRun(r, res.Tally, req.Strict, req.Key, ingestion.NewMetadata(body, "", ingestion.FormatJSON).Hash),
	})
}

// resolveRecords runs record consensus. Without parse only the tally is
// computed and Records is left nil.
func (s *Server) resolveRecords(ctx context.Context, req *types.RecordsRequest, parse bool) (*detective.RecordsResult, error) {
	records := req.Records
	if parse {
		return s.detectiveFor(req.Strict).ResolveRecords(ctx, records, req.Key, req.PreserveOriginal)
	}
	tally, err := s.detective.RecordsConsensus(ctx, records, req.Key)
	if err != nil {
		return nil, err
	}
	return &detective.RecordsResult{Format: tally.Winner().Format, Tally: tally}, nil
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.errorResponse(w, &ErrStoreUnavailable{})
		return
	}
	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, &ErrValidation{Field: "id", Message: "invalid run ID"})
		return
	}

	run, err := s.runs.GetRun(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if run == nil {
		s.errorResponse(w, &ErrRunNotFound{RunID: runID})
		return
	}
	s.jsonResponse(w, http.StatusOK, run)
}

// saveRun records a consensus run when run history is enabled. Failures are
// logged; the request still succeeds.
func (s *Server) saveRun(r *http.Request, tally *detective.Tally, strict bool, key, hash string) *uuid.UUID {
	if s.runs == nil {
		return nil
	}
	source := "api"
	if subject, ok := middleware.Subject(r.Context()); ok {
		source = "api:" + subject
	}

	id, err := s.runs.SaveRun(r.Context(), &db.RunInput{
		Tagger:    s.detective.TaggerName(),
		Strict:    strict || s.detective.IsStrict(),
		DateKey:   key,
		Source:    source,
		InputHash: hash,
		Tally:     tally,
	})
	if err != nil {
		s.logger.Warn("failed to save consensus run", zap.Error(err))
		return nil
	}
	return &id
}

func tallyEntries(t *detective.Tally) []types.TallyEntry {
	ranked := t.Ranked()
	out := make([]types.TallyEntry, len(ranked))
	for i, e := range ranked {
		out[i] = types.TallyEntry{Format: e.Format, Count: e.Count}
	}
	return out
}

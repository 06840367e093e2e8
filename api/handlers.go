// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/blinklabs-io/attest/address"
	"github.com/blinklabs-io/attest/event"
	"github.com/blinklabs-io/attest/eventlog"
	"github.com/blinklabs-io/attest/ledger"
)

// writeJSON writes a JSON response with the given status code
func writeJSON(
	w http.ResponseWriter,
	status int,
	v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

func writeError(
	w http.ResponseWriter,
	status int,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
	})
}

// writeLedgerError maps a ledger error onto an HTTP status
func (s *Server) writeLedgerError(
	w http.ResponseWriter,
	err error,
	what string,
) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("failed to "+what, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to "+what)
	}
}

// handleHealth handles GET /health
func (s *Server) handleHealth(
	w http.ResponseWriter,
	r *http.Request,
) {
	_, err := s.ledger.Config(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, HealthResponse{
			IsHealthy:   true,
			Initialized: true,
		})
	case errors.Is(err, ledger.ErrNotInitialized):
		writeJSON(w, http.StatusOK, HealthResponse{IsHealthy: true})
	default:
		s.logger.Error("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{})
	}
}

// handleConfig handles GET /api/v1/config
func (s *Server) handleConfig(
	w http.ResponseWriter,
	r *http.Request,
) {
	pc, err := s.ledger.Config(r.Context())
	if err != nil {
		s.writeLedgerError(w, err, "retrieve config")
		return
	}
	writeJSON(w, http.StatusOK, newConfigResponse(pc))
}

// handleAttestation handles GET /api/v1/attestations/{hash}
func (s *Server) handleAttestation(
	w http.ResponseWriter,
	r *http.Request,
) {
	contentHash, err := ledger.ParseContentHash(r.PathValue("hash"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	att, err := s.ledger.Attestation(r.Context(), contentHash)
	if err != nil {
		s.writeLedgerError(w, err, "retrieve attestation")
		return
	}
	writeJSON(w, http.StatusOK, newAttestationResponse(att))
}

// handleAttestations handles GET /api/v1/attestations. It accepts the
// creator and verified filters plus pagination
func (s *Server) handleAttestations(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, err := ParsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter := ledger.ListFilter{
		Limit:      params.Count,
		Offset:     params.Offset(),
		Descending: params.Descending(),
	}
	query := r.URL.Query()
	if creator := query.Get("creator"); creator != "" {
		filter.Creator, err = address.ParseIdentity(creator)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid creator")
			return
		}
	}
	if verified := query.Get("verified"); verified != "" {
		v, err := strconv.ParseBool(verified)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid verified flag")
			return
		}
		filter.Verified = &v
	}
	total, err := s.ledger.CountAttestations(r.Context(), filter)
	if err != nil {
		s.writeLedgerError(w, err, "count attestations")
		return
	}
	atts, err := s.ledger.ListAttestations(r.Context(), filter)
	if err != nil {
		s.writeLedgerError(w, err, "list attestations")
		return
	}
	ret := make([]AttestationResponse, 0, len(atts))
	for _, att := range atts {
		ret = append(ret, newAttestationResponse(att))
	}
	SetPaginationHeaders(w, total, params)
	writeJSON(w, http.StatusOK, ret)
}

// handleEvents handles GET /api/v1/events. It accepts the type,
// content_hash and after filters plus pagination
func (s *Server) handleEvents(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, err := ParsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter := eventlog.Filter{
		Limit:      params.Count,
		Offset:     params.Offset(),
		Descending: params.Descending(),
	}
	query := r.URL.Query()
	if evtType := query.Get("type"); evtType != "" {
		filter.Type = event.EventType(evtType)
	}
	if hash := query.Get("content_hash"); hash != "" {
		filter.ContentHash, err = ledger.ParseContentHash(hash)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if after := query.Get("after"); after != "" {
		filter.After, err = strconv.ParseUint(after, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid after sequence")
			return
		}
	}
	total, err := s.events.Count(filter)
	if err != nil {
		s.logger.Error("failed to count events", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to count events")
		return
	}
	entries, err := s.events.List(filter)
	if err != nil {
		s.logger.Error("failed to list events", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	if entries == nil {
		entries = []eventlog.Entry{}
	}
	SetPaginationHeaders(w, total, params)
	writeJSON(w, http.StatusOK, entries)
}

package proposal

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/govhub-labs/govstate-storage/internal/api"
	"github.com/govhub-labs/govstate-storage/internal/stage"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

type Server struct {
	sp *Service
}

func NewServer(s *Service) *Server {
	return &Server{
		sp: s,
	}
}

func (s *Server) Register(router *mux.Router) {
	router.HandleFunc("/v1/proposals", s.getProposals).Methods(http.MethodGet)
	router.HandleFunc("/v1/proposals/{id}", s.getProposal).Methods(http.MethodGet)
	router.HandleFunc("/v1/proposals/{id}/summary", s.getSummary).Methods(http.MethodGet)
}

type listResponse struct {
	Items      []Proposal `json:"items"`
	TotalCount int64      `json:"total_count"`
}

func (s *Server) getProposals(w http.ResponseWriter, r *http.Request) {
	predicates, page, err := listFilters(r)
	if err != nil {
		api.WriteBadRequest(w, err.Error())

		return
	}

	list, err := s.sp.GetList(append(predicates, page...)...)
	if err != nil {
		log.Error().Err(err).Msg("get proposals")
		api.WriteError(w, err)

		return
	}

	count, err := s.sp.repo.Count(predicates...)
	if err != nil {
		log.Error().Err(err).Msg("count proposals")
		api.WriteError(w, err)

		return
	}

	api.WriteJSON(w, http.StatusOK, listResponse{Items: list, TotalCount: count})
}

func (s *Server) getProposal(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	p, err := s.sp.GetByID(r.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		api.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "proposal not found"})

		return
	}
	if err != nil {
		log.Error().Err(err).Str("proposal", id).Msg("get proposal")
		api.WriteError(w, err)

		return
	}

	api.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) getSummary(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	summary, err := s.sp.GetAISummary(r.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		api.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "proposal not found"})

		return
	}
	if errors.Is(err, ErrSummaryUnavailable) {
		api.WriteJSON(w, http.StatusNotImplemented, map[string]string{"error": err.Error()})

		return
	}
	if err != nil {
		log.Error().Err(err).Str("proposal", id).Msg("get proposal summary")
		api.WriteError(w, err)

		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]string{"proposal_id": id, "summary": summary})
}

// listFilters splits the request into predicate filters, shared with the
// count query, and paging filters applied to the listing only.
func listFilters(r *http.Request) (predicates, page []Filter, err error) {
	query := r.URL.Query()

	offset, err := parseUintParam(query.Get("offset"), 0)
	if err != nil {
		return nil, nil, errors.New("invalid offset")
	}

	limit, err := parseUintParam(query.Get("limit"), defaultLimit)
	if err != nil || limit > maxLimit {
		return nil, nil, errors.New("invalid limit")
	}

	page = []Filter{
		OrderByFilter{Field: "authored_at", Desc: true},
		PageFilter{Offset: int(offset), Limit: int(limit)},
	}

	if raw := query.Get("status"); raw != "" {
		predicates = append(predicates, StatusFilter{Status: stage.ProposalStatus(raw)})
	}

	if raw := query.Get("stage"); raw != "" {
		predicates = append(predicates, CurrentStageFilter{Stage: stage.Type(raw)})
	}

	if raw := query.Get("emergency"); raw != "" {
		emergency, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, nil, errors.New("invalid emergency flag")
		}

		predicates = append(predicates, EmergencyFilter{IsEmergency: emergency})
	}

	return predicates, page, nil
}

func parseUintParam(raw string, def uint64) (uint64, error) {
	if raw == "" {
		return def, nil
	}

	return strconv.ParseUint(raw, 10, 32)
}

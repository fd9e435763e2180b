package gaugevote

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"go.openly.dev/pointy"

	"github.com/govhub-labs/govstate-storage/internal/api"
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
	router.HandleFunc("/v1/gauges/{contract}/votes", s.getGaugeVotes).Methods(http.MethodGet)
}

func (s *Server) getGaugeVotes(w http.ResponseWriter, r *http.Request) {
	contractHex := mux.Vars(r)["contract"]
	if !common.IsHexAddress(contractHex) {
		api.WriteBadRequest(w, "invalid voting contract address")

		return
	}
	contract := common.HexToAddress(contractHex)

	var gauges []common.Address
	if raw := r.URL.Query().Get("gauges"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if !common.IsHexAddress(part) {
				api.WriteBadRequest(w, "invalid gauge address")

				return
			}

			gauges = append(gauges, common.HexToAddress(part))
		}
	}

	var epoch *uint64
	if raw := r.URL.Query().Get("epoch"); raw != "" && raw != "all" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			api.WriteBadRequest(w, "invalid epoch")

			return
		}

		epoch = pointy.Uint64(parsed)
	}

	summaries, err := s.sp.GetGaugeVotes(r.Context(), contract, gauges, epoch)
	if err != nil {
		log.Error().Err(err).Str("contract", contract.Hex()).Msg("get gauge votes")
		api.WriteError(w, err)

		return
	}

	api.WriteJSON(w, http.StatusOK, summaries)
}

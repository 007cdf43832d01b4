package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stellarlinkco/idiom-eval/internal/discrepancy"
	"github.com/stellarlinkco/idiom-eval/internal/gold"
	"github.com/stellarlinkco/idiom-eval/internal/metrics"
	"github.com/stellarlinkco/idiom-eval/internal/store"
)

type predictionPayload struct {
	Expression     string `json:"expression"`
	Predicted      string `json:"predicted"`
	PredictedIndex int    `json:"predicted_index"`
	Protocol       string `json:"protocol"`
	RawAnswer      string `json:"raw_answer"`
	Votes          string `json:"votes,omitempty"`
	YesCount       int    `json:"yes_count"`
	AmbiguousZero  bool   `json:"ambiguous_zero"`
	AmbiguousMulti bool   `json:"ambiguous_multi"`
	CreatedAt      string `json:"created_at"`
}

type discrepancyPayload struct {
	Model         string `json:"model"`
	Expression    string `json:"expression"`
	Predicted     string `json:"predicted"`
	Correct       string `json:"correct"`
	Category      string `json:"category"`
	PredictedText string `json:"predicted_text"`
	CorrectText   string `json:"correct_text"`
	CreatedAt     string `json:"created_at"`
}

type overviewPayload struct {
	Model             string   `json:"model"`
	Predictions       int      `json:"predictions"`
	Discrepancies     int      `json:"discrepancies"`
	Accuracy          *float64 `json:"accuracy"`
	AccuracyLabel     string   `json:"accuracy_label"`
	Concrete          int      `json:"concrete"`
	Abstract          int      `json:"abstract"`
	Random            int      `json:"random"`
	Unknown           int      `json:"unknown"`
	ConcretePct       float64  `json:"concrete_pct"`
	AbstractPct       float64  `json:"abstract_pct"`
	RandomPct         float64  `json:"random_pct"`
	UnknownPct        float64  `json:"unknown_pct"`
	AmbiguousZero     int      `json:"ambiguous_zero"`
	AmbiguousMulti    int      `json:"ambiguous_multi"`
	AmbiguousZeroPct  float64  `json:"ambiguous_zero_pct"`
	AmbiguousMultiPct float64  `json:"ambiguous_multi_pct"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListModels(c *gin.Context) {
	models, err := s.store.ListModels(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	if models == nil {
		models = []string{}
	}
	c.JSON(http.StatusOK, models)
}

func (s *Server) handleListPredictions(c *gin.Context) {
	modelID := strings.TrimSpace(c.Param("model"))
	if modelID == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing model id"))
		return
	}
	limit, err := parseLimitParam(c.Query("limit"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	preds, err := s.store.ListPredictions(c.Request.Context(), modelID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	if limit > 0 && len(preds) > limit {
		preds = preds[:limit]
	}

	out := make([]predictionPayload, 0, len(preds))
	for _, p := range preds {
		out = append(out, predictionPayload{
			Expression:     p.Expression,
			Predicted:      gold.Letter(p.Predicted),
			PredictedIndex: p.Predicted,
			Protocol:       p.Protocol,
			RawAnswer:      p.RawAnswer,
			Votes:          p.Votes,
			YesCount:       p.YesCount,
			AmbiguousZero:  p.AmbiguousZero,
			AmbiguousMulti: p.AmbiguousMulti,
			CreatedAt:      p.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleListDiscrepancies(c *gin.Context) {
	modelID := strings.TrimSpace(c.Param("model"))
	if modelID == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing model id"))
		return
	}

	discs, err := s.store.ListDiscrepancies(c.Request.Context(), modelID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, discrepancyPayloads(discs))
}

func (s *Server) handleModelOverview(c *gin.Context) {
	modelID := strings.TrimSpace(c.Param("model"))
	if modelID == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing model id"))
		return
	}

	o, err := s.aggregator.ModelOverview(c.Request.Context(), modelID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, overviewPayloadFrom(o))
}

func (s *Server) handleOverview(c *gin.Context) {
	overview, err := s.aggregator.Overview(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	out := make([]overviewPayload, 0, len(overview))
	for _, o := range overview {
		out = append(out, overviewPayloadFrom(o))
	}
	c.JSON(http.StatusOK, out)
}

func discrepancyPayloads(discs []*store.Discrepancy) []discrepancyPayload {
	out := make([]discrepancyPayload, 0, len(discs))
	for _, d := range discs {
		out = append(out, discrepancyPayload{
			Model:         d.ModelID,
			Expression:    d.Expression,
			Predicted:     gold.Letter(d.Predicted),
			Correct:       gold.Letter(d.Correct),
			Category:      d.Category,
			PredictedText: d.PredictedText,
			CorrectText:   d.CorrectText,
			CreatedAt:     d.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}

func overviewPayloadFrom(o *metrics.ModelOverview) overviewPayload {
	p := overviewPayload{
		Model:             o.ModelID,
		Predictions:       o.Predictions,
		Discrepancies:     o.Discrepancies,
		AccuracyLabel:     o.AccuracyLabel(),
		Concrete:          o.Concrete,
		Abstract:          o.Abstract,
		Random:            o.Random,
		Unknown:           o.Unknown,
		ConcretePct:       o.CategoryPercent(discrepancy.CategoryConcrete),
		AbstractPct:       o.CategoryPercent(discrepancy.CategoryAbstract),
		RandomPct:         o.CategoryPercent(discrepancy.CategoryRandom),
		UnknownPct:        o.CategoryPercent(discrepancy.CategoryUnknown),
		AmbiguousZero:     o.AmbiguousZero,
		AmbiguousMulti:    o.AmbiguousMulti,
		AmbiguousZeroPct:  o.AmbiguousZeroRate(),
		AmbiguousMultiPct: o.AmbiguousMultiRate(),
	}
	if o.AccuracyDefined {
		accuracy := o.Accuracy
		p.Accuracy = &accuracy
	}
	return p
}

func respondError(c *gin.Context, status int, err error) {
	if err == nil {
		c.Status(status)
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func parseLimitParam(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	if v <= 0 {
		return 0, errors.New("limit must be > 0")
	}
	return v, nil
}

package api

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/profile"
	"github.com/spigell/cv-matcher/internal/storage"
)

const (
	defaultTop   = 10
	defaultLimit = 100
)

type analyzeRequest struct {
	Weights map[string]float64 `json:"weights" validate:"omitempty,dive,gte=0,lte=1"`
}

func decodeBody(c *fiber.Ctx) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(c.Body(), &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (s *Server) createCV(c *fiber.Ctx) error {
	raw, err := decodeBody(c)
	if err != nil {
		return failure(c, fiber.StatusBadRequest, "request body must be a JSON object")
	}

	p, err := profile.DecodeCandidate(raw)
	if err != nil {
		return failure(c, fiber.StatusBadRequest, err.Error())
	}

	cv, err := storage.NewCV(p)
	if err != nil {
		return failure(c, fiber.StatusBadRequest, err.Error())
	}
	if err := s.store.CreateCV(c.UserContext(), cv); err != nil {
		return s.storeError(c, "cv", err)
	}

	return success(c, fiber.StatusCreated, "cv created", cv)
}

func (s *Server) listCVs(c *fiber.Ctx) error {
	cvs, err := s.store.ListCVs(c.UserContext(), c.QueryInt("skip", 0), c.QueryInt("limit", defaultLimit))
	if err != nil {
		return s.storeError(c, "cv", err)
	}
	return success(c, fiber.StatusOK, "cvs", cvs)
}

func (s *Server) searchCVs(c *fiber.Ctx) error {
	cvs, err := s.store.SearchCVs(c.UserContext(), strings.TrimSpace(c.Params("name")))
	if err != nil {
		return s.storeError(c, "cv", err)
	}
	return success(c, fiber.StatusOK, "cvs", cvs)
}

func (s *Server) getCV(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return failure(c, fiber.StatusBadRequest, "invalid cv id")
	}
	cv, err := s.store.GetCV(c.UserContext(), id)
	if err != nil {
		return s.storeError(c, "cv", err)
	}
	return success(c, fiber.StatusOK, "cv", cv)
}

func (s *Server) deleteCV(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return failure(c, fiber.StatusBadRequest, "invalid cv id")
	}
	if err := s.store.DeleteCV(c.UserContext(), id); err != nil {
		return s.storeError(c, "cv", err)
	}
	return success(c, fiber.StatusOK, "cv deleted", nil)
}

func (s *Server) cvAnalyses(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return failure(c, fiber.StatusBadRequest, "invalid cv id")
	}
	if _, err := s.store.GetCV(c.UserContext(), id); err != nil {
		return s.storeError(c, "cv", err)
	}
	analyses, err := s.store.AnalysesByCV(c.UserContext(), id)
	if err != nil {
		return s.storeError(c, "analysis", err)
	}
	return success(c, fiber.StatusOK, "analyses", analyses)
}

func (s *Server) createJob(c *fiber.Ctx) error {
	raw, err := decodeBody(c)
	if err != nil {
		return failure(c, fiber.StatusBadRequest, "request body must be a JSON object")
	}

	r, err := profile.DecodeJob(raw)
	if err != nil {
		return failure(c, fiber.StatusBadRequest, err.Error())
	}

	job, err := storage.NewJob(r)
	if err != nil {
		return failure(c, fiber.StatusBadRequest, err.Error())
	}
	if err := s.store.CreateJob(c.UserContext(), job); err != nil {
		return s.storeError(c, "job", err)
	}

	return success(c, fiber.StatusCreated, "job created", job)
}

func (s *Server) listJobs(c *fiber.Ctx) error {
	jobs, err := s.store.ListJobs(c.UserContext(), c.QueryInt("skip", 0), c.QueryInt("limit", defaultLimit))
	if err != nil {
		return s.storeError(c, "job", err)
	}
	return success(c, fiber.StatusOK, "jobs", jobs)
}

func (s *Server) searchJobs(c *fiber.Ctx) error {
	jobs, err := s.store.SearchJobs(c.UserContext(), strings.TrimSpace(c.Params("name")))
	if err != nil {
		return s.storeError(c, "job", err)
	}
	return success(c, fiber.StatusOK, "jobs", jobs)
}

func (s *Server) getJob(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return failure(c, fiber.StatusBadRequest, "invalid job id")
	}
	job, err := s.store.GetJob(c.UserContext(), id)
	if err != nil {
		return s.storeError(c, "job", err)
	}
	return success(c, fiber.StatusOK, "job", job)
}

func (s *Server) deleteJob(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return failure(c, fiber.StatusBadRequest, "invalid job id")
	}
	if err := s.store.DeleteJob(c.UserContext(), id); err != nil {
		return s.storeError(c, "job", err)
	}
	return success(c, fiber.StatusOK, "job deleted", nil)
}

func (s *Server) jobAnalyses(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return failure(c, fiber.StatusBadRequest, "invalid job id")
	}
	if _, err := s.store.GetJob(c.UserContext(), id); err != nil {
		return s.storeError(c, "job", err)
	}
	analyses, err := s.store.AnalysesByJob(c.UserContext(), id)
	if err != nil {
		return s.storeError(c, "analysis", err)
	}
	return success(c, fiber.StatusOK, "analyses", analyses)
}

func (s *Server) topCandidates(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return failure(c, fiber.StatusBadRequest, "invalid job id")
	}
	if _, err := s.store.GetJob(c.UserContext(), id); err != nil {
		return s.storeError(c, "job", err)
	}

	limit := c.QueryInt("limit", defaultTop)
	if limit <= 0 {
		return failure(c, fiber.StatusBadRequest, "limit must be positive")
	}

	top, err := s.store.TopCandidates(c.UserContext(), id, limit)
	if err != nil {
		return s.storeError(c, "analysis", err)
	}

	type ranked struct {
		Rank       int     `json:"rank"`
		AnalysisID string  `json:"analysis_id"`
		CVID       string  `json:"cv_id"`
		Name       string  `json:"name"`
		Score      float64 `json:"score"`
		Percentage float64 `json:"percentage"`
		Confidence string  `json:"confidence"`
	}

	out := make([]ranked, 0, len(top))
	for i, a := range top {
		name := ""
		if a.CV != nil {
			name = a.CV.Name
		}
		out = append(out, ranked{
			Rank:       i + 1,
			AnalysisID: a.ID.String(),
			CVID:       a.CVID.String(),
			Name:       name,
			Score:      a.Score,
			Percentage: percentage(a.Score),
			Confidence: a.Confidence,
		})
	}

	return success(c, fiber.StatusOK, "top candidates", out)
}

func (s *Server) analyze(c *fiber.Ctx) error {
	cvID, ok := parseID(c, "cv_id")
	if !ok {
		return failure(c, fiber.StatusBadRequest, "invalid cv id")
	}
	jobID, ok := parseID(c, "job_id")
	if !ok {
		return failure(c, fiber.StatusBadRequest, "invalid job id")
	}

	var req analyzeRequest
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return failure(c, fiber.StatusBadRequest, "invalid weights body")
		}
		if err := profile.Validate(&req); err != nil {
			return failure(c, fiber.StatusBadRequest, err.Error())
		}
	}

	ctx := c.UserContext()

	cvRecord, err := s.store.GetCV(ctx, cvID)
	if err != nil {
		return s.storeError(c, "cv", err)
	}
	jobRecord, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return s.storeError(c, "job", err)
	}

	cv, err := cvRecord.Profile()
	if err != nil {
		s.logger.Error("stored cv is unreadable", zap.Error(err))
		return failure(c, fiber.StatusUnprocessableEntity, err.Error())
	}
	job, err := jobRecord.Requirement()
	if err != nil {
		s.logger.Error("stored job is unreadable", zap.Error(err))
		return failure(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	report := s.matcher.Compare(ctx, cv, job, req.Weights)

	analysis, err := storage.NewAnalysis(cvID, jobID, report)
	if err != nil {
		return failure(c, fiber.StatusInternalServerError, err.Error())
	}
	if err := s.store.CreateAnalysis(ctx, analysis); err != nil {
		return s.storeError(c, "analysis", err)
	}

	b := report.Breakdown
	return success(c, fiber.StatusCreated, "analysis completed", fiber.Map{
		"analysis_id":     analysis.ID,
		"cv_id":           cvID,
		"job_id":          jobID,
		"candidate":       report.Candidate,
		"job_title":       report.JobTitle,
		"score":           b.FinalScore,
		"percentage":      b.Percentage(),
		"confidence":      b.Confidence,
		"degraded":        b.Degraded,
		"ignored_aspects": b.IgnoredAspects,
		"weights_used":    b.Weights,
		"breakdown":       b,
		"results":         report.Results,
		"processing_time": report.Duration.Seconds(),
	})
}

func (s *Server) listAnalyses(c *fiber.Ctx) error {
	analyses, err := s.store.ListAnalyses(c.UserContext(), c.QueryInt("skip", 0), c.QueryInt("limit", defaultLimit))
	if err != nil {
		return s.storeError(c, "analysis", err)
	}
	return success(c, fiber.StatusOK, "analyses", analyses)
}

func (s *Server) getAnalysis(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return failure(c, fiber.StatusBadRequest, "invalid analysis id")
	}
	a, err := s.store.GetAnalysis(c.UserContext(), id)
	if err != nil {
		return s.storeError(c, "analysis", err)
	}
	return success(c, fiber.StatusOK, "analysis", a)
}

func (s *Server) stats(c *fiber.Ctx) error {
	st, err := s.store.Stats(c.UserContext())
	if err != nil {
		return s.storeError(c, "stats", err)
	}
	return success(c, fiber.StatusOK, "stats", st)
}

func percentage(score float64) float64 {
	return math.Round(score*1000) / 10
}

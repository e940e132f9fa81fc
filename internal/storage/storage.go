// Package storage persists CVs, jobs and their analyses in PostgreSQL.
package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var ErrNotFound = errors.New("record not found")

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// Open connects to PostgreSQL and migrates the schema.
func Open(dsn string, log *zap.Logger) (*gorm.DB, error) {
	if log == nil {
		log = zap.NewNop()
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info("database ready")
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&CV{}, &Job{}, &Analysis{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Ping reports whether the database answers.
func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *Repository) CreateCV(ctx context.Context, cv *CV) error {
	return r.db.WithContext(ctx).Create(cv).Error
}

func (r *Repository) GetCV(ctx context.Context, id uuid.UUID) (*CV, error) {
	var cv CV
	if err := r.db.WithContext(ctx).First(&cv, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &cv, nil
}

func (r *Repository) ListCVs(ctx context.Context, skip, limit int) ([]CV, error) {
	var cvs []CV
	err := paginate(r.db.WithContext(ctx), skip, limit).Order("created_at desc").Find(&cvs).Error
	return cvs, err
}

func (r *Repository) SearchCVs(ctx context.Context, name string) ([]CV, error) {
	var cvs []CV
	err := r.db.WithContext(ctx).Where("name ILIKE ?", "%"+name+"%").Order("name").Find(&cvs).Error
	return cvs, err
}

// DeleteCV removes a CV together with its analyses.
func (r *Repository) DeleteCV(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cv_id = ?", id).Delete(&Analysis{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&CV{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *Repository) CreateJob(ctx context.Context, job *Job) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *Repository) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	var job Job
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &job, nil
}

func (r *Repository) ListJobs(ctx context.Context, skip, limit int) ([]Job, error) {
	var jobs []Job
	err := paginate(r.db.WithContext(ctx), skip, limit).Order("created_at desc").Find(&jobs).Error
	return jobs, err
}

func (r *Repository) SearchJobs(ctx context.Context, title string) ([]Job, error) {
	var jobs []Job
	err := r.db.WithContext(ctx).Where("title ILIKE ?", "%"+title+"%").Order("title").Find(&jobs).Error
	return jobs, err
}

// DeleteJob removes a job together with its analyses.
func (r *Repository) DeleteJob(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ?", id).Delete(&Analysis{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&Job{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *Repository) CreateAnalysis(ctx context.Context, a *Analysis) error {
	return r.db.WithContext(ctx).Omit("CV", "Job").Create(a).Error
}

func (r *Repository) GetAnalysis(ctx context.Context, id uuid.UUID) (*Analysis, error) {
	var a Analysis
	if err := r.db.WithContext(ctx).Preload("CV").Preload("Job").First(&a, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (r *Repository) ListAnalyses(ctx context.Context, skip, limit int) ([]Analysis, error) {
	var out []Analysis
	err := paginate(r.db.WithContext(ctx), skip, limit).Order("created_at desc").Find(&out).Error
	return out, err
}

func (r *Repository) AnalysesByCV(ctx context.Context, cvID uuid.UUID) ([]Analysis, error) {
	var out []Analysis
	err := r.db.WithContext(ctx).Preload("Job").Where("cv_id = ?", cvID).Order("created_at desc").Find(&out).Error
	return out, err
}

// AnalysesByJob returns every analysis of a job, best score first.
func (r *Repository) AnalysesByJob(ctx context.Context, jobID uuid.UUID) ([]Analysis, error) {
	var out []Analysis
	err := r.db.WithContext(ctx).Preload("CV").Where("job_id = ?", jobID).Order("score desc").Find(&out).Error
	return out, err
}

// TopCandidates returns the best scored analyses of a job with their CVs.
func (r *Repository) TopCandidates(ctx context.Context, jobID uuid.UUID, limit int) ([]Analysis, error) {
	var out []Analysis
	err := paginate(r.db.WithContext(ctx), 0, limit).
		Preload("CV").
		Where("job_id = ?", jobID).
		Order("score desc").
		Find(&out).Error
	return out, err
}

func (r *Repository) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	db := r.db.WithContext(ctx)

	if err := db.Model(&CV{}).Count(&s.CVs).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&Job{}).Count(&s.Jobs).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&Analysis{}).Count(&s.Analyses).Error; err != nil {
		return nil, err
	}

	var avg float64
	if err := db.Model(&Analysis{}).Select("COALESCE(AVG(score), 0)").Scan(&avg).Error; err != nil {
		return nil, err
	}
	s.AverageScore = math.Round(avg*1000) / 1000

	return &s, nil
}

func paginate(db *gorm.DB, skip, limit int) *gorm.DB {
	if skip < 0 {
		skip = 0
	}
	switch {
	case limit <= 0:
		limit = defaultLimit
	case limit > maxLimit:
		limit = maxLimit
	}
	return db.Offset(skip).Limit(limit)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

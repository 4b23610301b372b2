package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"

	"github.com/edumatrix/edumatrix-backend/internal/config"
	"github.com/edumatrix/edumatrix-backend/internal/database"
	"github.com/edumatrix/edumatrix-backend/internal/fallback"
	"github.com/edumatrix/edumatrix-backend/internal/logger"
	"github.com/edumatrix/edumatrix-backend/internal/repository"
)

// report prints institution analytics to the terminal: per-subject averages,
// and optionally one exam's leaderboard.
func main() {
	var institutionCode string
	var examIDRaw string
	flag.StringVar(&institutionCode, "institution", "", "Institution code (required)")
	flag.StringVar(&examIDRaw, "exam", "", "Exam UUID for a leaderboard (optional)")
	flag.Parse()

	if institutionCode == "" {
		fmt.Println("Usage: report -institution <code> [-exam <uuid>]")
		os.Exit(1)
	}

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	resultRepo := repository.NewResultRepository(pool)
	submissionRepo := repository.NewSubmissionRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)

	heading := color.New(color.FgCyan, color.Bold)

	heading.Printf("\nSubject averages: %s\n\n", institutionCode)
	if err := printSubjectAverages(ctx, resultRepo, institutionCode); err != nil {
		log.Fatal().Err(err).Msg("Failed to build subject averages")
	}

	if examIDRaw != "" {
		examID, err := uuid.Parse(examIDRaw)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid exam UUID")
		}
		heading.Printf("\nLeaderboard: exam %s\n\n", examID)
		if err := printLeaderboard(ctx, submissionRepo, questionRepo, examID); err != nil {
			log.Fatal().Err(err).Msg("Failed to build leaderboard")
		}
	}

	if cfg.FallbackDBPath != "" {
		if err := printPendingFallback(ctx, cfg.FallbackDBPath, heading); err != nil {
			log.Warn().Err(err).Msg("Could not read the fallback store")
		}
	}
}

func printSubjectAverages(ctx context.Context, repo *repository.ResultRepository, institutionCode string) error {
	averages, err := repo.AverageBySubject(ctx, institutionCode)
	if err != nil {
		return err
	}
	if len(averages) == 0 {
		fmt.Println("No published results yet.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Subject", "Average %", "Results"})
	for _, a := range averages {
		table.Append([]string{
			a.Subject,
			fmt.Sprintf("%.1f", a.AvgPercent),
			strconv.FormatInt(a.Count, 10),
		})
	}
	table.Render()
	return nil
}

func printLeaderboard(ctx context.Context, repo *repository.SubmissionRepository, questionRepo *repository.QuestionRepository, examID uuid.UUID) error {
	subs, _, err := repo.ListByExam(ctx, examID, 1, 100)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		fmt.Println("No submissions yet.")
		return nil
	}

	maxScore, err := questionRepo.MaxScore(ctx, examID)
	if err != nil {
		return err
	}

	late := color.New(color.FgYellow).SprintFunc()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"#", "Student", "Score", "Status", "Submitted"})
	for i, s := range subs {
		status := string(s.Status)
		if s.Late {
			status = late(status + " (late)")
		}
		submitted := "-"
		if s.SubmittedAt != nil {
			submitted = s.SubmittedAt.Format("2006-01-02 15:04:05")
		}
		table.Append([]string{
			strconv.Itoa(i + 1),
			s.StudentName,
			fmt.Sprintf("%d / %d", s.Score, maxScore),
			status,
			submitted,
		})
	}
	table.Render()
	return nil
}

// printPendingFallback lists attempts captured by the SQLite mirror while
// PostgreSQL was unreachable. These need manual reconciliation.
func printPendingFallback(ctx context.Context, path string, heading *color.Color) error {
	store, err := fallback.Open(ctx, path)
	if err != nil {
		return err
	}
	defer store.Close()

	pending, err := store.ListPending(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	heading.Printf("\nPending fallback submissions (%d)\n\n", len(pending))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Submission", "Exam", "Student", "Status", "Started"})
	for _, s := range pending {
		table.Append([]string{
			s.ID.String(),
			s.ExamID.String(),
			strconv.Itoa(s.StudentID),
			string(s.Status),
			s.StartedAt.Format("2006-01-02 15:04:05"),
		})
	}
	table.Render()
	return nil
}

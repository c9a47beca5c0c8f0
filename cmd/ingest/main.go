package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"course-buddy-be/internal/bootstrap"
	"course-buddy-be/internal/config"
	"course-buddy-be/internal/pkg/logger"
	"course-buddy-be/internal/repository/implementation"
	"course-buddy-be/internal/repository/memory"
	"course-buddy-be/internal/repository/unitofwork"
	"course-buddy-be/internal/service"
	"course-buddy-be/pkg/database"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "ingest",
		Short: "Index lecture transcripts for course Q&A",
	}
	root.AddCommand(newCourseCmd(), newListCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCourseCmd() *cobra.Command {
	var (
		csvPath string
		course  string
		window  float64
		replace bool
		probe   string
	)

	cmd := &cobra.Command{
		Use:   "course",
		Short: "Parse, chunk and embed one course from a CSV export",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			db, err := database.Open(cfg.Database.Connection, database.DefaultPoolConfig(), cfg.Database.Debug)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}

			embedder, err := bootstrap.NewEmbeddingProvider(cfg.Ai)
			if err != nil {
				return err
			}
			if closer, ok := embedder.(io.Closer); ok {
				defer closer.Close()
			}

			f, err := os.Open(csvPath)
			if err != nil {
				return err
			}
			defer f.Close()
			rows, err := service.ReadLectureCSV(f)
			if err != nil {
				return err
			}

			log := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
			defer log.Sync()

			res, err := service.NewIngestService(unitofwork.NewRepositoryFactory(db), embedder, log).IngestCourse(cmd.Context(), course, rows, service.IngestOptions{
				WindowSeconds: window,
				Replace:       replace,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Lectures indexed: %d\nLectures skipped: %d\nChunks stored: %d\n", res.Lectures, res.Skipped, res.Chunks)

			if probe == "" {
				return nil
			}
			// Sanity search over the first ten lectures.
			vec, err := embedder.Generate(cmd.Context(), probe)
			if err != nil {
				return err
			}
			repo := implementation.NewTranscriptChunkRepository(db)
			store := implementation.NewChunkVectorStore(repo, memory.NewLectureRepository(cfg.Cache.LectureTTL))
			hits, err := store.Search(cmd.Context(), vec.Embedding.Values, course, 10, 3)
			if err != nil {
				return err
			}
			fmt.Printf("\nProbe %q:\n", probe)
			for _, h := range hits {
				fmt.Printf("  %.4f  %-40.40s  %s-%s\n", h.Score, h.Metadata.LectureTitle, h.Metadata.TimestampStart, h.Metadata.TimestampEnd)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "path to the lecture CSV export")
	cmd.Flags().StringVar(&course, "course", "", "course title to ingest")
	cmd.Flags().Float64Var(&window, "window", 50, "target chunk length in seconds")
	cmd.Flags().BoolVar(&replace, "replace", false, "delete the course's existing chunks first")
	cmd.Flags().StringVar(&probe, "probe", "", "run a test search after ingesting")
	_ = cmd.MarkFlagRequired("csv")
	_ = cmd.MarkFlagRequired("course")
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List indexed courses",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			db, err := database.Open(cfg.Database.Connection, database.DefaultPoolConfig(), cfg.Database.Debug)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}

			courses, err := service.NewCatalogService(implementation.NewTranscriptChunkRepository(db)).ListCourses(cmd.Context())
			if err != nil {
				return err
			}
			for _, c := range courses {
				fmt.Printf("%-40s  chapters=%-3d lectures=%d\n", c.CourseTitle, c.ChapterCount, c.LectureCount)
			}
			return nil
		},
	}
}

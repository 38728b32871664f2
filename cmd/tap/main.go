package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/MohitNilvarn/TAP/internal/ai"
	"github.com/MohitNilvarn/TAP/internal/config"
	"github.com/MohitNilvarn/TAP/internal/db"
	"github.com/MohitNilvarn/TAP/internal/embedcache"
	"github.com/MohitNilvarn/TAP/internal/filestore"
	"github.com/MohitNilvarn/TAP/internal/handler"
	"github.com/MohitNilvarn/TAP/internal/ingest"
	"github.com/MohitNilvarn/TAP/internal/job"
	"github.com/MohitNilvarn/TAP/internal/middleware"
	"github.com/MohitNilvarn/TAP/internal/pipeline"
	"github.com/MohitNilvarn/TAP/internal/repo"
	"github.com/MohitNilvarn/TAP/internal/schedule"
	"github.com/MohitNilvarn/TAP/internal/service"
	"github.com/MohitNilvarn/TAP/internal/transcribe"
	"github.com/MohitNilvarn/TAP/internal/vector"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "tap",
		Short: "tap backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run tap server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
			return runServer(cfg)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
		zap.String("ai_provider", cfg.AI.Provider),
	)

	database, err := db.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	if err := db.ApplyMigrations(database); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	courseRepo := repo.NewCourseRepo(database)
	lectureRepo := repo.NewLectureRepo(database)
	materialRepo := repo.NewMaterialRepo(database)
	contentRepo := repo.NewContentRepo(database)
	vectorDocRepo := repo.NewVectorDocRepo(database)
	embedCacheRepo := repo.NewEmbeddingCacheRepo(database)

	aiProvider, err := ai.NewProvider(cfg.AI.Provider, cfg.AI.Data)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	embedProvider, err := ai.NewEmbedProvider(cfg.AI.EmbedProvider, cfg.AI.EmbedData)
	if err != nil {
		return fmt.Errorf("init ai embed provider: %w", err)
	}
	generator := ai.NewGenerator(aiProvider, cfg.AI.Model)
	rawEmbedder := ai.NewEmbedder(embedProvider, cfg.AI.EmbedModel)
	cachedEmbedder := embedcache.WrapLruCacheToEmbedder(
		embedcache.WrapDBCacheToEmbedder(rawEmbedder, embedCacheRepo),
		10000, 2*time.Hour,
	)
	embedder := vector.NewEmbedder(cachedEmbedder, cfg.Generation.EmbedBatchSize)
	index := vector.NewIndex(vectorDocRepo, embedder)
	modelClient := ai.NewClient(generator, ai.DefaultRetryPolicy())

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	httpClient := &http.Client{Timeout: 10 * time.Minute}
	if cfg.Extraction.Endpoint != "" {
		remote := ingest.NewRemoteExtractor(cfg.Extraction.Endpoint, httpClient)
		for _, fileType := range cfg.Extraction.Types {
			ingest.RegisterExtractor(fileType, remote)
		}
	}
	transcriber := transcribe.NewWhisperTranscriber(cfg.Transcribe.Endpoint, cfg.Transcribe.Language, httpClient)

	retriever := pipeline.NewRetriever(index, cfg.Generation.RetrievalTopK)
	genPipeline := pipeline.New(retriever, modelClient, contentRepo, lectureRepo)

	materialService := service.NewMaterialService(materialRepo, courseRepo, store, index,
		cfg.Generation.ChunkSize, cfg.Generation.ChunkOverlap)
	lectureService := service.NewLectureService(lectureRepo, courseRepo, contentRepo, store, index,
		transcriber, genPipeline, cfg.Generation.ChunkSize, cfg.Generation.ChunkOverlap)
	contentService := service.NewContentService(contentRepo, lectureRepo)
	courseService := service.NewCourseService(courseRepo, lectureService, materialService, index)

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewMaterialSweepJob(materialRepo, materialService), cfg.Jobs.MaterialSweepSpec); err != nil {
		return err
	}
	if err := scheduler.AddJob(job.NewEmbeddingCacheCleanupJob(embedCacheRepo, cfg.Jobs.EmbeddingCacheKeepDays), cfg.Jobs.EmbeddingCacheSpec); err != nil {
		return err
	}
	if err := scheduler.AddJob(job.NewStaleGenerationJob(lectureRepo, cfg.Jobs.StaleGenerationAfterMins), cfg.Jobs.StaleGenerationSpec); err != nil {
		return err
	}

	deps := handler.RouterDeps{
		Courses:   handler.NewCourseHandler(courseService),
		Materials: handler.NewMaterialHandler(materialService),
		Lectures:  handler.NewLectureHandler(lectureService),
		Content:   handler.NewContentHandler(contentService),
		Files:     handler.NewFileHandler(store),
		JWTSecret: []byte(cfg.JWTSecret),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSAllow),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Start(ctx)
	defer scheduler.Stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()
	logutil.GetLogger(context.Background()).Info("http server listening",
		zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}

package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pathshala-api/config"
	"pathshala-api/models"
	"pathshala-api/services"
)

var (
	contentCreatedCounter     prometheus.Counter
	activitiesTrackedCounter  prometheus.Counter
	profilesRecomputedCounter prometheus.Counter
	badgesAwardedCounter      prometheus.Counter
)

func init() {
	contentCreatedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "content_items_created_total",
			Help: "Total number of content items (blogs, exercises, tutorials) created.",
		},
	)
	activitiesTrackedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "activities_tracked_total",
			Help: "Total number of daily activity records tracked.",
		},
	)
	profilesRecomputedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "profiles_recomputed_total",
			Help: "Total number of performance profile recomputations.",
		},
	)
	badgesAwardedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "badges_awarded_total",
			Help: "Total number of badges awarded to users.",
		},
	)
	prometheus.MustRegister(contentCreatedCounter, activitiesTrackedCounter, profilesRecomputedCounter, badgesAwardedCounter)
}

// hashToken bildet den SHA-256-Hex-Hash eines API-Tokens; nur Hashes werden
// gespeichert und verglichen.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// resolveToken löst einen Bearer-Token aus dem Authorization-Header gegen die
// api_tokens-Tabelle auf. Die Token-Ausgabe selbst übernimmt der externe
// Auth-Dienst; hier wird der Identität bedingungslos vertraut.
func resolveToken(db *gorm.DB, c *gin.Context) (models.User, bool) {
	header := c.GetHeader("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" || token == header {
		return models.User{}, false
	}

	var apiToken models.APIToken
	if err := db.Preload("User").Where("token_hash = ?", hashToken(token)).First(&apiToken).Error; err != nil {
		return models.User{}, false
	}

	// Best effort; ein Fehler hier darf den Request nicht abbrechen.
	db.Model(&apiToken).UpdateColumn("last_used", time.Now().UTC())

	return apiToken.User, true
}

func authMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := resolveToken(db, c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: missing or invalid token"})
			return
		}
		c.Set("user", user)
		c.Next()
	}
}

// optionalAuthMiddleware setzt den User, falls ein gültiger Token mitkommt,
// lehnt aber anonyme Requests nicht ab (öffentliche Profilansicht).
func optionalAuthMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, ok := resolveToken(db, c); ok {
			c.Set("user", user)
		}
		c.Next()
	}
}

func adminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentUser(c).Role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden: admin role required"})
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) models.User {
	if v, ok := c.Get("user"); ok {
		if user, ok := v.(models.User); ok {
			return user
		}
	}
	return models.User{}
}

// respondServiceError übersetzt die Fehler-Taxonomie der Services in
// HTTP-Antworten: Validation 422, NotFound 404, Conflict 409, Forbidden 403.
func respondServiceError(c *gin.Context, log *zap.Logger, err error) {
	var validationErr *services.ValidationError
	var notFoundErr *services.NotFoundError
	var conflictErr *services.ConflictError
	var forbiddenErr *services.ForbiddenError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": validationErr.Fields})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{"error": conflictErr.Error()})
	case errors.As(err, &forbiddenErr):
		c.JSON(http.StatusForbidden, gin.H{"error": forbiddenErr.Error()})
	default:
		log.Error("Unhandled service error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	// Setup Database Connection
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to database.")

	// Auto-Migration
	logging.Info("Running database auto-migration...")
	if err := db.AutoMigrate(
		&models.User{}, &models.APIToken{},
		&models.Blog{}, &models.Exercise{}, &models.Tutorial{},
		&models.UserProfile{}, &models.UserActivity{},
		&models.UserPerformance{}, &models.UserFavorite{},
	); err != nil {
		logging.Fatal("Auto-migration failed", zap.Error(err))
	}

	// Seeding
	seedAdminUser(db, cfg, logging)

	// Setup Services
	contentService := services.NewContentService(db, logging)
	progressService := services.NewProgressService(db, logging)

	// Setup Router
	router := gin.Default()
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "pathshala-api"})
	})

	auth := authMiddleware(db)

	// Setup Routes
	setupBlogRoutes(router, db, contentService, cfg, logging, auth)
	setupExerciseRoutes(router, db, contentService, cfg, logging, auth)
	setupTutorialRoutes(router, db, contentService, cfg, logging, auth)
	setupProfileRoutes(router, db, progressService, logging, auth)
	setupPublicProfileRoutes(router, db, progressService, logging)

	// Setup Cron: nächtlicher Neuaufbau aller Profile, damit gerissene
	// Streaks auch ohne neue Aktivität sichtbar werden.
	cronScheduler := cron.New()
	_, err = cronScheduler.AddFunc(cfg.RecomputeCronSchedule, func() {
		logging.Info("Running scheduled profile recompute...")
		count, err := progressService.RecomputeAll()
		if err != nil {
			logging.Error("Scheduled recompute failed", zap.Error(err))
			return
		}
		profilesRecomputedCounter.Add(float64(count))
		logging.Info("Scheduled recompute completed", zap.Int("profiles", count))
	})
	if err != nil {
		logging.Fatal("Invalid recompute cron schedule",
			zap.String("schedule", cfg.RecomputeCronSchedule), zap.Error(err))
	}
	cronScheduler.Start()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

func seedAdminUser(db *gorm.DB, cfg *config.Config, logger *zap.Logger) {
	var admin models.User
	err := db.Where("email = ?", cfg.AdminEmail).
		FirstOrCreate(&admin, models.User{
			Name:  cfg.AdminName,
			Email: cfg.AdminEmail,
			Role:  models.RoleAdmin,
		}).Error
	if err != nil {
		logger.Warn("Failed to seed admin user", zap.Error(err))
		return
	}

	token := cfg.AdminAPIToken
	if token == "" {
		token = uuid.NewString()
		logger.Info("Generated admin API token (set ADMIN_API_TOKEN to make it stable)",
			zap.String("token", token))
	}

	var apiToken models.APIToken
	err = db.Where("token_hash = ?", hashToken(token)).
		FirstOrCreate(&apiToken, models.APIToken{
			UserID:    admin.ID,
			TokenHash: hashToken(token),
			Name:      "seed-admin",
		}).Error
	if err != nil {
		logger.Warn("Failed to seed admin token", zap.Error(err))
	} else {
		logger.Info("Admin user seeded.", zap.String("email", cfg.AdminEmail))
	}
}

// parsePagination liest page/per_page aus der Query, begrenzt auf MaxPageSize.
func parsePagination(c *gin.Context, cfg *config.Config) (page, perPage, offset int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ = strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(cfg.DefaultPageSize)))
	if perPage < 1 {
		perPage = cfg.DefaultPageSize
	}
	if perPage > cfg.MaxPageSize {
		perPage = cfg.MaxPageSize
	}
	return page, perPage, (page - 1) * perPage
}

// sortClause baut eine ORDER-BY-Klausel aus sort_by/sort_order, beschränkt
// auf eine Whitelist von Spalten (kein SQL-Injection-Vektor).
func sortClause(c *gin.Context, allowed map[string]bool, fallback string) string {
	sortBy := c.DefaultQuery("sort_by", fallback)
	if !allowed[sortBy] {
		sortBy = fallback
	}
	sortOrder := strings.ToLower(c.DefaultQuery("sort_order", "desc"))
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}
	return sortBy + " " + sortOrder
}

// buildUpdateMap filtert ein JSON-Partial-Update auf die erlaubten Spalten.
// Die Whitelist bildet JSON-Feld -> Spaltenname ab; Arrays/Objekte werden zu
// JSON-Spaltenwerten serialisiert, published_at/date_of_birth geparst.
func buildUpdateMap(raw map[string]interface{}, allowed map[string]string) (map[string]interface{}, error) {
	changes := map[string]interface{}{}
	for field, column := range allowed {
		value, ok := raw[field]
		if !ok {
			continue
		}

		switch v := value.(type) {
		case nil:
			// Explizite JSON-nulls werden verworfen; Spalten lassen sich
			// nicht über das Partial-Update auf NULL setzen.
			continue
		case []interface{}, map[string]interface{}:
			encoded, err := json.Marshal(v)
			if err != nil {
				return nil, services.NewValidationError(field, "must be valid JSON")
			}
			changes[column] = datatypes.JSON(encoded)
		case string:
			if field == "published_at" || field == "date_of_birth" {
				parsed, err := parseFlexibleTime(v)
				if err != nil {
					return nil, services.NewValidationError(field, "must be a valid date")
				}
				changes[column] = parsed
				continue
			}
			changes[column] = v
		default:
			changes[column] = v
		}
	}
	return changes, nil
}

func parseFlexibleTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

var blogUpdatableFields = map[string]string{
	"title": "title", "title_bn": "title_bn",
	"excerpt": "excerpt", "excerpt_bn": "excerpt_bn",
	"content": "content", "content_bn": "content_bn",
	"author": "author", "author_bn": "author_bn",
	"category": "category", "category_bn": "category_bn",
	"tags": "tags", "tags_bn": "tags_bn",
	"read_time": "read_time", "read_time_bn": "read_time_bn",
	"image_url": "image_url", "status": "status", "published_at": "published_at",
}

// setupBlogRoutes konfiguriert die öffentlichen Blog-Listen und das
// Admin-CRUD unter /blogs.
func setupBlogRoutes(router *gin.Engine, db *gorm.DB, cs *services.ContentService, cfg *config.Config, log *zap.Logger, auth gin.HandlerFunc) {
	rg := router.Group("/blogs")

	// Öffentliche Liste: immer auf published beschränkt, unabhängig von
	// Filter- und Sortierparametern des Aufrufers.
	rg.GET("/", func(c *gin.Context) {
		query := db.Model(&models.Blog{}).Scopes(models.Published)

		if category := c.Query("category"); category != "" {
			query = query.Where("category = ?", category)
		}
		if search := c.Query("search"); search != "" {
			pattern := "%" + strings.ToLower(search) + "%"
			query = query.Where("LOWER(title) LIKE ? OR LOWER(title_bn) LIKE ?", pattern, pattern)
		}

		var total int64
		if err := query.Count(&total).Error; err != nil {
			log.Error("Database count for blogs failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		page, perPage, offset := parsePagination(c, cfg)
		order := sortClause(c, map[string]bool{
			"published_at": true, "views": true, "created_at": true, "title": true,
		}, "published_at")

		var blogs []models.Blog
		if err := query.Order(order).Limit(perPage).Offset(offset).Find(&blogs).Error; err != nil {
			log.Error("Database query for blogs failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"data": blogs, "total": total, "page": page, "per_page": perPage,
		})
	})

	// Alle Kategorien veröffentlichter Blogs (beide Sprachen).
	rg.GET("/categories", func(c *gin.Context) {
		type categoryPair struct {
			Category   string `json:"category"`
			CategoryBn string `json:"category_bn"`
		}
		var categories []categoryPair
		if err := db.Model(&models.Blog{}).Scopes(models.Published).
			Distinct("category", "category_bn").
			Find(&categories).Error; err != nil {
			log.Error("Database query for blog categories failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, categories)
	})

	rg.GET("/popular", func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))
		var blogs []models.Blog
		if err := db.Scopes(models.Published).Order("views desc").Limit(limit).Find(&blogs).Error; err != nil {
			log.Error("Database query for popular blogs failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, blogs)
	})

	rg.GET("/recent", func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))
		var blogs []models.Blog
		if err := db.Scopes(models.Published).Order("published_at desc").Limit(limit).Find(&blogs).Error; err != nil {
			log.Error("Database query for recent blogs failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, blogs)
	})

	rg.GET("/:slug", func(c *gin.Context) {
		slug := c.Param("slug")
		var blog models.Blog
		if err := db.Where("slug = ?", slug).First(&blog).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "blog not found"})
				return
			}
			log.Error("Database error while fetching blog", zap.String("slug", slug), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		cs.IncrementViews(&blog)
		blog.Views++

		c.JSON(http.StatusOK, blog)
	})

	// POST - Create new blog (admin)
	rg.POST("/", auth, adminOnly(), func(c *gin.Context) {
		var blog models.Blog
		if err := c.ShouldBindJSON(&blog); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		if err := cs.Create(&blog); err != nil {
			respondServiceError(c, log, err)
			return
		}

		contentCreatedCounter.Inc()
		c.JSON(http.StatusCreated, blog)
	})

	// PUT - Partial update by slug (admin)
	rg.PUT("/:slug", auth, adminOnly(), func(c *gin.Context) {
		slug := c.Param("slug")
		var blog models.Blog
		if err := db.Where("slug = ?", slug).First(&blog).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "blog not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		var raw map[string]interface{}
		if err := c.ShouldBindJSON(&raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		changes, err := buildUpdateMap(raw, blogUpdatableFields)
		if err != nil {
			respondServiceError(c, log, err)
			return
		}
		if err := cs.Update(&blog, changes); err != nil {
			respondServiceError(c, log, err)
			return
		}

		// Frisch laden, damit die Antwort die regenerierten Felder enthält.
		db.First(&blog, blog.ID)
		c.JSON(http.StatusOK, blog)
	})

	// DELETE - Destroy by slug (admin)
	rg.DELETE("/:slug", auth, adminOnly(), func(c *gin.Context) {
		result := db.Where("slug = ?", c.Param("slug")).Delete(&models.Blog{})
		if result.Error != nil {
			log.Error("Failed to delete blog", zap.String("slug", c.Param("slug")), zap.Error(result.Error))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "blog not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Blog deleted successfully"})
	})

	// POST - Body-gesteuerter Admin-Query-Endpunkt ohne Published-Scope.
	rg.POST("/query", auth, adminOnly(), func(c *gin.Context) {
		type BlogQuery struct {
			Status   string `json:"status"`
			Category string `json:"category"`
			Search   string `json:"search"`
			Limit    int    `json:"limit"`
		}

		var req BlogQuery
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		query := db.Model(&models.Blog{})
		if req.Status != "" {
			query = query.Where("status = ?", req.Status)
		}
		if req.Category != "" {
			query = query.Where("category = ?", req.Category)
		}
		if req.Search != "" {
			pattern := "%" + strings.ToLower(req.Search) + "%"
			query = query.Where("LOWER(title) LIKE ? OR LOWER(title_bn) LIKE ?", pattern, pattern)
		}
		if req.Limit > 0 {
			query = query.Limit(req.Limit)
		}

		var blogs []models.Blog
		if err := query.Order("created_at desc").Find(&blogs).Error; err != nil {
			log.Error("Database query for blogs failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, blogs)
	})
}

var exerciseUpdatableFields = map[string]string{
	"title": "title", "title_bn": "title_bn",
	"description": "description", "description_bn": "description_bn",
	"instructions": "instructions", "instructions_bn": "instructions_bn",
	"problem_statement": "problem_statement", "problem_statement_bn": "problem_statement_bn",
	"input_description": "input_description", "input_description_bn": "input_description_bn",
	"output_description": "output_description", "output_description_bn": "output_description_bn",
	"sample_input": "sample_input", "sample_input_bn": "sample_input_bn",
	"sample_output": "sample_output", "sample_output_bn": "sample_output_bn",
	"difficulty": "difficulty", "difficulty_bn": "difficulty_bn",
	"duration": "duration", "duration_bn": "duration_bn",
	"category": "category", "category_bn": "category_bn",
	"tags": "tags", "tags_bn": "tags_bn",
	"starter_code": "starter_code", "solution_code": "solution_code",
	"programming_language": "programming_language",
	"language_name":        "language_name", "language_name_bn": "language_name_bn",
	"image_url": "image_url", "status": "status", "published_at": "published_at",
}

// setupExerciseRoutes konfiguriert die Exercise-Routen inkl. des
// Completion-Zählers unter /exercises.
func setupExerciseRoutes(router *gin.Engine, db *gorm.DB, cs *services.ContentService, cfg *config.Config, log *zap.Logger, auth gin.HandlerFunc) {
	rg := router.Group("/exercises")

	rg.GET("/", func(c *gin.Context) {
		query := db.Model(&models.Exercise{}).Scopes(models.Published)

		if category := c.Query("category"); category != "" {
			query = query.Where("category = ?", category)
		}
		if difficulty := c.Query("difficulty"); difficulty != "" {
			query = query.Where("difficulty = ?", difficulty)
		}
		if search := c.Query("search"); search != "" {
			pattern := "%" + strings.ToLower(search) + "%"
			query = query.Where("LOWER(title) LIKE ? OR LOWER(title_bn) LIKE ?", pattern, pattern)
		}

		var total int64
		if err := query.Count(&total).Error; err != nil {
			log.Error("Database count for exercises failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		page, perPage, offset := parsePagination(c, cfg)
		order := sortClause(c, map[string]bool{
			"published_at": true, "views": true, "completions": true,
			"created_at": true, "title": true, "difficulty": true,
		}, "published_at")

		var exercises []models.Exercise
		if err := query.Order(order).Limit(perPage).Offset(offset).Find(&exercises).Error; err != nil {
			log.Error("Database query for exercises failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"data": exercises, "total": total, "page": page, "per_page": perPage,
		})
	})

	rg.GET("/:slug", func(c *gin.Context) {
		slug := c.Param("slug")
		var exercise models.Exercise
		if err := db.Where("slug = ?", slug).First(&exercise).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "exercise not found"})
				return
			}
			log.Error("Database error while fetching exercise", zap.String("slug", slug), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		cs.IncrementViews(&exercise)
		exercise.Views++

		c.JSON(http.StatusOK, exercise)
	})

	// POST - Completion-Zähler (authentifizierte User)
	rg.POST("/:slug/complete", auth, func(c *gin.Context) {
		slug := c.Param("slug")
		var exercise models.Exercise
		if err := db.Where("slug = ?", slug).First(&exercise).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "exercise not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		if err := cs.IncrementCompletions(&exercise); err != nil {
			log.Error("Failed to increment completion counter", zap.String("slug", slug), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record completion"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Completion recorded", "completions": exercise.Completions + 1})
	})

	rg.POST("/", auth, adminOnly(), func(c *gin.Context) {
		var exercise models.Exercise
		if err := c.ShouldBindJSON(&exercise); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		if err := cs.Create(&exercise); err != nil {
			respondServiceError(c, log, err)
			return
		}

		contentCreatedCounter.Inc()
		c.JSON(http.StatusCreated, exercise)
	})

	rg.PUT("/:slug", auth, adminOnly(), func(c *gin.Context) {
		slug := c.Param("slug")
		var exercise models.Exercise
		if err := db.Where("slug = ?", slug).First(&exercise).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "exercise not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		var raw map[string]interface{}
		if err := c.ShouldBindJSON(&raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		changes, err := buildUpdateMap(raw, exerciseUpdatableFields)
		if err != nil {
			respondServiceError(c, log, err)
			return
		}
		if err := cs.Update(&exercise, changes); err != nil {
			respondServiceError(c, log, err)
			return
		}

		db.First(&exercise, exercise.ID)
		c.JSON(http.StatusOK, exercise)
	})

	rg.DELETE("/:slug", auth, adminOnly(), func(c *gin.Context) {
		result := db.Where("slug = ?", c.Param("slug")).Delete(&models.Exercise{})
		if result.Error != nil {
			log.Error("Failed to delete exercise", zap.String("slug", c.Param("slug")), zap.Error(result.Error))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "exercise not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Exercise deleted successfully"})
	})

	rg.POST("/query", auth, adminOnly(), func(c *gin.Context) {
		type ExerciseQuery struct {
			Status     string `json:"status"`
			Category   string `json:"category"`
			Difficulty string `json:"difficulty"`
			Search     string `json:"search"`
			Limit      int    `json:"limit"`
		}

		var req ExerciseQuery
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		query := db.Model(&models.Exercise{})
		if req.Status != "" {
			query = query.Where("status = ?", req.Status)
		}
		if req.Category != "" {
			query = query.Where("category = ?", req.Category)
		}
		if req.Difficulty != "" {
			query = query.Where("difficulty = ?", req.Difficulty)
		}
		if req.Search != "" {
			pattern := "%" + strings.ToLower(req.Search) + "%"
			query = query.Where("LOWER(title) LIKE ? OR LOWER(title_bn) LIKE ?", pattern, pattern)
		}
		if req.Limit > 0 {
			query = query.Limit(req.Limit)
		}

		var exercises []models.Exercise
		if err := query.Order("created_at desc").Find(&exercises).Error; err != nil {
			log.Error("Database query for exercises failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, exercises)
	})
}

var tutorialUpdatableFields = map[string]string{
	"language_id": "language_id", "title": "title",
	"content": "content", "code_example": "code_example",
	"order": "sort_order", "status": "status", "published_at": "published_at",
}

// setupTutorialRoutes konfiguriert die Lernpfad-Routen unter /tutorials.
func setupTutorialRoutes(router *gin.Engine, db *gorm.DB, cs *services.ContentService, cfg *config.Config, log *zap.Logger, auth gin.HandlerFunc) {
	rg := router.Group("/tutorials")

	// Tutorials werden nach Lernpfad-Reihenfolge geliefert, nicht nach Datum.
	rg.GET("/", func(c *gin.Context) {
		query := db.Model(&models.Tutorial{}).Scopes(models.Published)

		if languageID := c.Query("language_id"); languageID != "" {
			query = query.Where("language_id = ?", languageID)
		}
		if search := c.Query("search"); search != "" {
			query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(search)+"%")
		}

		query = query.Order("sort_order asc, id asc")

		var tutorials []models.Tutorial
		if c.Query("per_page") != "" {
			_, perPage, offset := parsePagination(c, cfg)
			query = query.Limit(perPage).Offset(offset)
		}
		if err := query.Find(&tutorials).Error; err != nil {
			log.Error("Database query for tutorials failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		c.JSON(http.StatusOK, tutorials)
	})

	rg.GET("/:slug", func(c *gin.Context) {
		slug := c.Param("slug")
		var tutorial models.Tutorial
		if err := db.Where("slug = ?", slug).First(&tutorial).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "tutorial not found"})
				return
			}
			log.Error("Database error while fetching tutorial", zap.String("slug", slug), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		cs.IncrementViews(&tutorial)
		tutorial.Views++

		c.JSON(http.StatusOK, tutorial)
	})

	rg.POST("/", auth, adminOnly(), func(c *gin.Context) {
		var tutorial models.Tutorial
		if err := c.ShouldBindJSON(&tutorial); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		if err := cs.Create(&tutorial); err != nil {
			respondServiceError(c, log, err)
			return
		}

		contentCreatedCounter.Inc()
		c.JSON(http.StatusCreated, tutorial)
	})

	rg.PUT("/:slug", auth, adminOnly(), func(c *gin.Context) {
		slug := c.Param("slug")
		var tutorial models.Tutorial
		if err := db.Where("slug = ?", slug).First(&tutorial).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "tutorial not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		var raw map[string]interface{}
		if err := c.ShouldBindJSON(&raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		changes, err := buildUpdateMap(raw, tutorialUpdatableFields)
		if err != nil {
			respondServiceError(c, log, err)
			return
		}
		if err := cs.Update(&tutorial, changes); err != nil {
			respondServiceError(c, log, err)
			return
		}

		db.First(&tutorial, tutorial.ID)
		c.JSON(http.StatusOK, tutorial)
	})

	rg.DELETE("/:slug", auth, adminOnly(), func(c *gin.Context) {
		result := db.Where("slug = ?", c.Param("slug")).Delete(&models.Tutorial{})
		if result.Error != nil {
			log.Error("Failed to delete tutorial", zap.String("slug", c.Param("slug")), zap.Error(result.Error))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "tutorial not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Tutorial deleted successfully"})
	})
}

var profileUpdatableFields = map[string]string{
	"username": "username", "phone": "phone", "bio": "bio",
	"avatar_url": "avatar_url", "location": "location", "timezone": "timezone",
	"date_of_birth": "date_of_birth", "skill_level": "skill_level",
	"github_url": "github_url", "linkedin_url": "linkedin_url",
	"twitter_url": "twitter_url", "portfolio_url": "portfolio_url",
	"programming_languages": "programming_languages", "interests": "interests",
	"daily_goal_minutes": "daily_goal_minutes",
	"email_notifications": "email_notifications", "is_public": "is_public",
}

var favoriteUpdatableFields = map[string]string{
	"type": "type", "title": "title", "description": "description",
	"url": "url", "category": "category", "tags": "tags", "order": "sort_order",
}

// setupProfileRoutes konfiguriert die authentifizierten Profil-, Aktivitäts-
// und Favoriten-Routen unter /profile.
func setupProfileRoutes(router *gin.Engine, db *gorm.DB, ps *services.ProgressService, log *zap.Logger, auth gin.HandlerFunc) {
	rg := router.Group("/profile", auth)

	// GET - Komplettes eigenes Profil inkl. Performance und 30-Tage-Historie.
	rg.GET("/", func(c *gin.Context) {
		user := currentUser(c)

		var profile models.UserProfile
		if err := db.Where("user_id = ?", user.ID).
			FirstOrCreate(&profile, models.UserProfile{UserID: user.ID}).Error; err != nil {
			log.Error("Failed to load user profile", zap.Uint("user_id", user.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		performance, err := ps.GetPerformance(user.ID)
		if err != nil {
			respondServiceError(c, log, err)
			return
		}
		profilesRecomputedCounter.Inc()

		activities, summary, err := ps.ActivityHistory(user.ID, 30)
		if err != nil {
			respondServiceError(c, log, err)
			return
		}

		var todayActivity *models.UserActivity
		today := models.DateOnly(time.Now().UTC())
		for i := range activities {
			if models.DateOnly(activities[i].ActivityDate).Equal(today) {
				todayActivity = &activities[i]
				break
			}
		}

		var favorites []models.UserFavorite
		if err := db.Where("user_id = ?", user.ID).Order("sort_order asc").Find(&favorites).Error; err != nil {
			log.Error("Failed to load favorites", zap.Uint("user_id", user.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"user": gin.H{
				"id": user.ID, "name": user.Name, "email": user.Email,
				"role": user.Role, "created_at": user.CreatedAt,
				"last_login_at": user.LastLoginAt,
			},
			"profile":           profile,
			"performance":       performance,
			"favorites":         favorites,
			"recent_activities": activities,
			"today_activity":    todayActivity,
			"stats": gin.H{
				"total_favorites":              len(favorites),
				"active_days_last_30":          summary.ActiveDays,
				"total_active_minutes_last_30": summary.TotalMinutes,
			},
		})
	})

	// PUT - Stammdaten (Name, E-Mail)
	rg.PUT("/basic", func(c *gin.Context) {
		user := currentUser(c)

		var req struct {
			Name  *string `json:"name"`
			Email *string `json:"email"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		changes := map[string]interface{}{}
		if req.Name != nil {
			if *req.Name == "" {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": gin.H{"name": "field is required"}})
				return
			}
			changes["name"] = *req.Name
		}
		if req.Email != nil {
			if !strings.Contains(*req.Email, "@") {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": gin.H{"email": "must be a valid email address"}})
				return
			}
			changes["email"] = *req.Email
		}
		if len(changes) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No updatable fields provided"})
			return
		}

		if err := db.Model(&models.User{}).Where("id = ?", user.ID).Updates(changes).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": gin.H{"email": "already in use"}})
				return
			}
			log.Error("Failed to update basic info", zap.Uint("user_id", user.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		var updated models.User
		db.First(&updated, user.ID)
		c.JSON(http.StatusOK, updated)
	})

	// PUT - Profilfelder
	rg.PUT("/", func(c *gin.Context) {
		user := currentUser(c)

		var raw map[string]interface{}
		if err := c.ShouldBindJSON(&raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		if skill, ok := raw["skill_level"].(string); ok {
			switch skill {
			case "beginner", "intermediate", "advanced", "expert":
			default:
				c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": gin.H{"skill_level": "must be one of: beginner, intermediate, advanced, expert"}})
				return
			}
		}
		if goal, ok := raw["daily_goal_minutes"].(float64); ok && (goal < 0 || goal > 1440) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": gin.H{"daily_goal_minutes": "must be between 0 and 1440"}})
			return
		}

		changes, err := buildUpdateMap(raw, profileUpdatableFields)
		if err != nil {
			respondServiceError(c, log, err)
			return
		}
		if len(changes) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No updatable fields provided"})
			return
		}

		var profile models.UserProfile
		if err := db.Where("user_id = ?", user.ID).
			FirstOrCreate(&profile, models.UserProfile{UserID: user.ID}).Error; err != nil {
			log.Error("Failed to load user profile", zap.Uint("user_id", user.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		if err := db.Model(&profile).Updates(changes).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": gin.H{"username": "already taken"}})
				return
			}
			log.Error("Failed to update profile", zap.Uint("user_id", user.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		db.First(&profile, profile.ID)
		c.JSON(http.StatusOK, profile)
	})

	// POST - Tagesaktivität tracken (Upsert, Zähler werden ersetzt)
	rg.POST("/activity", func(c *gin.Context) {
		user := currentUser(c)

		var req struct {
			Date string `json:"date"`
			services.ActivityCounters
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		// Das "Heute" des Aufrufers ist maßgeblich; ohne Datum gilt UTC-heute.
		date := time.Now().UTC()
		if req.Date != "" {
			parsed, err := time.Parse("2006-01-02", req.Date)
			if err != nil {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": gin.H{"date": "must be formatted as YYYY-MM-DD"}})
				return
			}
			date = parsed
		}

		activity, err := ps.TrackActivity(user.ID, date, req.ActivityCounters)
		if err != nil {
			respondServiceError(c, log, err)
			return
		}

		activitiesTrackedCounter.Inc()
		profilesRecomputedCounter.Inc()
		c.JSON(http.StatusOK, gin.H{"message": "Activity tracked successfully", "activity": activity})
	})

	// GET - Aktivitätshistorie mit Zusammenfassung
	rg.GET("/activity", func(c *gin.Context) {
		user := currentUser(c)
		days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))

		activities, summary, err := ps.ActivityHistory(user.ID, days)
		if err != nil {
			respondServiceError(c, log, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"activities": activities, "summary": summary})
	})

	// GET - Performance-Profil (wird beim Abruf frisch berechnet)
	rg.GET("/performance", func(c *gin.Context) {
		performance, err := ps.GetPerformance(currentUser(c).ID)
		if err != nil {
			respondServiceError(c, log, err)
			return
		}
		profilesRecomputedCounter.Inc()
		c.JSON(http.StatusOK, performance)
	})

	// POST - Badge vergeben (idempotent)
	rg.POST("/badges", func(c *gin.Context) {
		var req struct {
			Badge string `json:"badge" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body. 'badge' field is required."})
			return
		}

		badges, err := ps.AwardBadge(currentUser(c).ID, req.Badge)
		if err != nil {
			respondServiceError(c, log, err)
			return
		}

		badgesAwardedCounter.Inc()
		c.JSON(http.StatusOK, gin.H{"badges": badges})
	})

	// Favoriten-CRUD
	rg.GET("/favorites", func(c *gin.Context) {
		user := currentUser(c)

		query := db.Where("user_id = ?", user.ID).Order("sort_order asc")
		if favType := c.Query("type"); favType != "" {
			query = query.Where("type = ?", favType)
		}

		var favorites []models.UserFavorite
		if err := query.Find(&favorites).Error; err != nil {
			log.Error("Failed to load favorites", zap.Uint("user_id", user.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, favorites)
	})

	rg.POST("/favorites", func(c *gin.Context) {
		user := currentUser(c)

		var favorite models.UserFavorite
		if err := c.ShouldBindJSON(&favorite); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		fieldErrs := map[string]string{}
		if favorite.Title == "" {
			fieldErrs["title"] = "field is required"
		}
		if !models.ValidFavoriteType(favorite.Type) {
			fieldErrs["type"] = "must be one of: course, tutorial, blog, tool, resource"
		}
		if len(fieldErrs) > 0 {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": fieldErrs})
			return
		}

		favorite.ID = 0
		favorite.UserID = user.ID
		if err := db.Create(&favorite).Error; err != nil {
			log.Error("Failed to create favorite", zap.Uint("user_id", user.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusCreated, favorite)
	})

	rg.PUT("/favorites/:id", func(c *gin.Context) {
		user := currentUser(c)
		id := c.Param("id")

		var favorite models.UserFavorite
		if err := db.Where("id = ? AND user_id = ?", id, user.ID).First(&favorite).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "favorite not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		var raw map[string]interface{}
		if err := c.ShouldBindJSON(&raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		if favType, ok := raw["type"].(string); ok && !models.ValidFavoriteType(favType) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": gin.H{"type": "must be one of: course, tutorial, blog, tool, resource"}})
			return
		}

		changes, err := buildUpdateMap(raw, favoriteUpdatableFields)
		if err != nil {
			respondServiceError(c, log, err)
			return
		}
		if err := db.Model(&favorite).Updates(changes).Error; err != nil {
			log.Error("Failed to update favorite", zap.Uint("user_id", user.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		db.First(&favorite, favorite.ID)
		c.JSON(http.StatusOK, favorite)
	})

	rg.DELETE("/favorites/:id", func(c *gin.Context) {
		user := currentUser(c)

		result := db.Where("id = ? AND user_id = ?", c.Param("id"), user.ID).Delete(&models.UserFavorite{})
		if result.Error != nil {
			log.Error("Failed to delete favorite", zap.Uint("user_id", user.ID), zap.Error(result.Error))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "favorite not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Favorite deleted successfully"})
	})
}

// setupPublicProfileRoutes konfiguriert die öffentliche Profilansicht.
// Private Profile sind nur für den (optional authentifizierten) Eigentümer
// sichtbar.
func setupPublicProfileRoutes(router *gin.Engine, db *gorm.DB, ps *services.ProgressService, log *zap.Logger) {
	router.GET("/users/:id/profile", optionalAuthMiddleware(db), func(c *gin.Context) {
		userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}

		profile, err := ps.GetPublicProfile(uint(userID), currentUser(c).ID)
		if err != nil {
			respondServiceError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, profile)
	})
}

// Package http is the reference REST transport (spec.md §6): health
// check plus the games registry surface, grounded on the teacher's
// internal/delivery/http package (router.go, health_handler.go,
// game_handler.go) generalized from Mars-specific game/player/card
// routes to this engine's game-lifecycle routes, using
// github.com/gin-gonic/gin in place of the teacher's gorilla/mux (the
// pack's other repos favor gin for the primary API; mux is kept for
// the small catalog fixture server under cmd/catalogfixture instead).
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"mtgserver/internal/engine/catalog"
	"mtgserver/internal/engine/effect"
	"mtgserver/internal/engine/enginerr"
	"mtgserver/internal/engine/eventlog"
	"mtgserver/internal/engine/idgen"
	"mtgserver/internal/engine/registry"
	"mtgserver/internal/engine/session"
	"mtgserver/internal/engine/view"
	"mtgserver/internal/middleware"
)

// Deps bundles everything a new game needs wired, shared across every
// created Executor.
type Deps struct {
	Registry *registry.Registry
	Store    eventlog.Store
	Catalog  catalog.Catalog
	Effects  *effect.Registry
	Logger   *zap.Logger
	OnCreate func(*session.Executor) // e.g. e.OnUpdate(hub.BroadcastView) registration
}

// NewRouter builds the gin engine. Routes are deliberately few: game
// creation/listing/inspection and health. Every in-game action travels
// over the ws transport, not REST, per spec.md §6's single
// bidirectional-channel contract.
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ZapRecovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.ZapLogger())

	r.GET("/health", healthCheck)

	games := r.Group("/api/v1/games")
	games.POST("", createGame(deps))
	games.GET("", listGames(deps))
	games.GET("/:gameId", getGame(deps))

	return r
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "mtg-engine"})
}

type createGameRequest struct {
	Format       string `json:"format" binding:"required"`
	StartingLife int    `json:"startingLife"`
	RNGSeed      int64  `json:"rngSeed"`
}

func createGame(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createGameRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.StartingLife == 0 {
			req.StartingLife = 20
		}
		gameID := uuid.NewString()
		exec, err := session.CreateGame(c.Request.Context(), gameID, req.Format, req.StartingLife, req.RNGSeed,
			idgen.UUIDGenerator{}, deps.Catalog, deps.Store, deps.Effects, deps.Logger)
		if err != nil {
			writeEngineError(c, err)
			return
		}
		if deps.OnCreate != nil {
			deps.OnCreate(exec)
		}
		if err := deps.Registry.Create(exec); err != nil {
			writeEngineError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"gameId": gameID})
	}
}

func listGames(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"games": deps.Registry.List()})
	}
}

func getGame(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		gameID := c.Param("gameId")
		exec, err := deps.Registry.Find(gameID)
		if err != nil {
			writeEngineError(c, err)
			return
		}
		viewerID := c.Query("playerId")
		c.JSON(http.StatusOK, view.Project(exec.Game(), viewerID))
	}
}

func writeEngineError(c *gin.Context, err error) {
	ee, ok := err.(*enginerr.Error)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	status := http.StatusBadRequest
	if ee.Kind == enginerr.KindNotFound {
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"kind": ee.Kind, "error": ee.Message})
}

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/annel0/brick-sandbox/internal/catalog"
	"github.com/annel0/brick-sandbox/internal/physics"
	"github.com/annel0/brick-sandbox/internal/world"
	"github.com/gin-gonic/gin"
)

// handleHealth проверка здоровья сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Сервер работает",
		Data: map[string]interface{}{
			"uptime":  rs.metrics.GetUptime(),
			"version": Version,
		},
	})
}

// handleServerInfo информация о сервере
func (rs *RestServer) handleServerInfo(c *gin.Context) {
	info := rs.metrics.Info(Version, rs.coord.Status().Bricks)
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Информация о сервере",
		Data:    info,
	})
}

func (rs *RestServer) handleCatalog(c *gin.Context) {
	cat := rs.coord.Catalog()
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Каталог кирпичей",
		Data:    CatalogDTO{Types: cat.Types(), Palette: cat.Palette()},
	})
}

func (rs *RestServer) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Состояние сцены",
		Data:    rs.stateDTO(rs.coord.Preview()),
	})
}

func (rs *RestServer) handleBricks(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Кирпичи сцены",
		Data:    rs.coord.Bricks(),
	})
}

// handleMode переключает BUILD/ERASE
func (rs *RestServer) handleMode(c *gin.Context) {
	var req ModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "Некорректный формат запроса")
		return
	}

	mode, err := world.ParseMode(req.Mode)
	if err != nil {
		abort(c, http.StatusBadRequest, "Неизвестный режим: "+req.Mode)
		return
	}
	if err := rs.coord.SetMode(mode); err != nil {
		rs.internalError(c, "смена режима", err)
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Режим изменён",
		Data:    rs.stateDTO(rs.coord.Preview()),
	})
}

// handleSelect выбирает тип кирпича и/или цвет
func (rs *RestServer) handleSelect(c *gin.Context) {
	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "Некорректный формат запроса")
		return
	}
	if req.Type == "" && req.Color == "" {
		abort(c, http.StatusBadRequest, "Нужно указать type или color")
		return
	}

	// Цвет разбираем до смены типа, чтобы не применять запрос частично
	var (
		color    catalog.Color
		hasColor bool
	)
	if req.Color != "" {
		parsed, err := catalog.ParseColor(req.Color)
		if err != nil {
			named, ok := rs.coord.Catalog().ColorByName(req.Color)
			if !ok {
				abort(c, http.StatusBadRequest, "Неизвестный цвет: "+req.Color)
				return
			}
			parsed = named
		}
		color, hasColor = parsed, true
	}

	if req.Type != "" {
		if err := rs.coord.SelectType(req.Type); err != nil {
			if errors.Is(err, catalog.ErrUnknownBrickType) {
				abort(c, http.StatusBadRequest, "Неизвестный тип кирпича: "+req.Type)
				return
			}
			rs.internalError(c, "выбор типа", err)
			return
		}
	}
	if hasColor {
		rs.coord.SelectColor(color)
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Выбор обновлён",
		Data:    rs.stateDTO(rs.coord.Preview()),
	})
}

// handleTick пересчитывает превью по лучу или готовому попаданию
func (rs *RestServer) handleTick(c *gin.Context) {
	var req TickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "Некорректный формат запроса")
		return
	}
	if (req.Ray == nil) == (req.Hit == nil) {
		abort(c, http.StatusBadRequest, "Нужно указать ровно одно из полей ray или hit")
		return
	}

	var (
		preview world.Preview
		err     error
	)
	if req.Ray != nil {
		ray, rayErr := physics.NewRay(req.Ray.Origin, req.Ray.Direction)
		if rayErr != nil {
			abort(c, http.StatusBadRequest, "Нулевое направление луча")
			return
		}
		preview, err = rs.coord.Tick(ray)
	} else {
		preview, err = rs.coord.TickHit(world.SurfaceHit{
			Ground: req.Hit.Ground,
			PartID: world.PartID(req.Hit.PartID),
			Point:  req.Hit.Point,
			Normal: req.Hit.Normal,
		})
	}
	if err != nil {
		// Часть из запроса клиента: неизвестный part_id это ошибка ввода, а не сцены
		if req.Hit != nil && errors.Is(err, world.ErrOrphanPart) {
			rs.logger.Warn("⚠️ Попадание в неизвестную часть %q", req.Hit.PartID)
			abort(c, http.StatusBadRequest, "Неизвестная часть кирпича")
			return
		}
		rs.internalError(c, "построение превью", err)
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Превью обновлено",
		Data:    rs.stateDTO(preview),
	})
}

func (rs *RestServer) handleCommit(c *gin.Context) {
	rs.respondOutcome(c, "фиксация", rs.coord.Commit)
}

func (rs *RestServer) handleUndo(c *gin.Context) {
	rs.respondOutcome(c, "отмена", rs.coord.Undo)
}

func (rs *RestServer) handleRedo(c *gin.Context) {
	rs.respondOutcome(c, "повтор", rs.coord.Redo)
}

// respondOutcome выполняет действие координатора и отвечает OutcomeDTO.
// Тихий no-op тоже успешный ответ, только Committed=false.
func (rs *RestServer) respondOutcome(c *gin.Context, action string, run func(ctx context.Context) (world.Outcome, error)) {
	outcome, err := run(c.Request.Context())
	if err != nil {
		rs.internalError(c, action, err)
		return
	}

	message := "Нет изменений"
	if outcome.Committed {
		message = "Изменение применено"
		subject := "anonymous"
		if claims := claimsFrom(c); claims != nil {
			subject = claims.Subject
		}
		rs.logger.Info("🧱 %s: %s %s (%s)", action, outcome.EventType, outcome.Brick.ID, subject)
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: message,
		Data:    newOutcomeDTO(outcome, rs.coord.Status()),
	})
}

func (rs *RestServer) stateDTO(p world.Preview) StateDTO {
	return StateDTO{Status: newStatusDTO(rs.coord.Status()), Preview: newPreviewDTO(p)}
}

// internalError отвечает 500; осиротевшая часть означает рассинхронизацию индекса
func (rs *RestServer) internalError(c *gin.Context, action string, err error) {
	if errors.Is(err, world.ErrOrphanPart) {
		rs.logger.Error("❌ %s: рассинхронизация индекса: %v", action, err)
	} else {
		rs.logger.Error("❌ %s: %v", action, err)
	}
	abort(c, http.StatusInternalServerError, "Внутренняя ошибка сервера")
}

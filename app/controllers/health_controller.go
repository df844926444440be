package controllers

import (
	"github.com/billfox-app/billfox/internal/pkg/database"
	"github.com/gofiber/fiber/v2"
)

// HandleHealthz reports process and database health.
func HandleHealthz(c *fiber.Ctx) error {
	db := database.GetDB()
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Ping(); err == nil {
				return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
			}
		}
	}
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded"})
}

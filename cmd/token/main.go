// Command token mints a device token for a kiosk screen or operator tablet.
// The token is printed to stdout.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dropkickfish/barq-client/internal/auth"
	"github.com/dropkickfish/barq-client/internal/config"
	"github.com/dropkickfish/barq-client/internal/enum"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	device := flag.String("device", "", "Device ID (default: new random ID)")
	role := flag.String("role", enum.DeviceRoleScreen, "Device role: SCREEN or OPERATOR")
	session := flag.String("session", cfg.SessionKey, "Bar session the device belongs to")
	ttl := flag.Duration("ttl", cfg.DeviceTokenTTL, "Token lifetime")
	flag.Parse()

	deviceID, err := parseDevice(*device)
	if err != nil {
		logger.Fatal("invalid device id", zap.String("device", *device), zap.Error(err))
	}

	r := strings.ToUpper(*role)
	if r != enum.DeviceRoleScreen && r != enum.DeviceRoleOperator {
		logger.Fatal("invalid role", zap.String("role", *role))
	}
	if cfg.DeviceSecret == "dev-secret-change-in-production" {
		logger.Warn("signing with the default DEVICE_SECRET; set it before deploying")
	}

	token, err := auth.GenerateToken(cfg.DeviceSecret, deviceID, *session, r, *ttl)
	if err != nil {
		logger.Fatal("generate token", zap.Error(err))
	}

	logger.Info("minted device token",
		zap.String("device_id", deviceID.String()),
		zap.String("role", r),
		zap.String("session", *session),
		zap.Time("expires", time.Now().Add(*ttl)),
	)
	fmt.Fprintln(os.Stdout, token)
}

func parseDevice(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.New(), nil
	}
	return uuid.Parse(s)
}

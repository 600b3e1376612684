package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/gorecover/internal/recovery"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.recovery.enabled") {
		if err := recovery.New(recovery.Dependency{
			Ctx:        a.ctx,
			DBConn:     a.dbConn,
			CacheConn:  a.cacheConn,
			Goroutine:  a.goroutine,
			Router:     a.router,
			Messaging:  a.messaging,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			HMAC:       a.hmac,
			Sealer:     a.sealer,
			Clock:      a.clock,
			Totp:       a.totp,
			Validator:  a.validator,
			JWT:        a.jwt,
		}); err != nil {
			slog.Error("failed to init module recovery", "error", err)
			os.Exit(1)
		}
	}
}

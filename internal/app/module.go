package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/steamguard/internal/authenticator"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.authenticator.enabled") {
		if err := authenticator.New(authenticator.Dependency{
			DBConn:       a.dbConn,
			CacheConn:    a.cacheConn,
			Goroutine:    a.goroutine,
			Router:       a.router,
			Steam:        a.steam,
			TimeSync:     a.timeSync,
			Idempotency:  a.idemp,
			Messaging:    a.messaging,
			Storage:      a.storage,
			Config:       a.config,
			Instrument:   a.ins,
			UID:          a.uid,
			UUID:         a.uuid,
			SessionID:    a.sessionID,
			MFAEncryptor: a.mfaEncryptor,
			Clock:        a.clock,
			Codes:        a.codes,
			Signer:       a.signer,
			Tokens:       a.tokens,
			Validator:    a.validator,
		}); err != nil {
			slog.Error("failed to init module authenticator", "error", err)
			os.Exit(1)
		}
	}
}

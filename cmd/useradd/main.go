// Command useradd provisions a technician account. There is no
// self-registration endpoint: accounts are created here, all sharing the
// bootstrap password from SHARED_PASSWORD.
//
// Usage:
//
//	SHARED_PASSWORD=... useradd -usuario 79965598 -nombre "JOHN VERGARA"
//	# reset an existing account's password back to the shared one:
//	FORCE_PASSWORD_RESET=1 SHARED_PASSWORD=... useradd -usuario 79965598 -nombre "JOHN VERGARA"
package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"fieldreport-backend/internal/database"
	"fieldreport-backend/internal/logging"
)

func main() {
	usuario := flag.String("usuario", "", "login name (national id, or \"admin\")")
	nombre := flag.String("nombre", "", "display name")
	flag.Parse()

	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DB", "fieldreport")
	viper.AutomaticEnv()

	log, err := logging.New("info", "development")
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	login := strings.TrimSpace(*usuario)
	display := strings.Join(strings.Fields(*nombre), " ")
	if login == "" || display == "" {
		log.Fatal("both -usuario and -nombre are required")
	}

	reset := viper.GetString("FORCE_PASSWORD_RESET") == "1"
	shared := viper.GetString("SHARED_PASSWORD")
	if shared == "" {
		log.Fatal("SHARED_PASSWORD is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(shared), 10)
	if err != nil {
		log.Fatal("hash failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	db, err := database.Connect(ctx, viper.GetString("MONGO_URI"), viper.GetString("MONGO_DB"), log)
	cancel()
	if err != nil {
		log.Fatal("mongo connect failed", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		db.Disconnect(ctx)
	}()

	created, err := db.UpsertUsuario(context.Background(), login, display, string(hash), reset)
	if err != nil {
		log.Fatal("upsert failed", zap.String("usuario", login), zap.Error(err))
	}

	if created {
		log.Info("usuario created", zap.String("usuario", login), zap.String("nombre", display))
		return
	}
	log.Info("usuario updated",
		zap.String("usuario", login),
		zap.String("nombre", display),
		zap.Bool("passwordReset", reset))
}

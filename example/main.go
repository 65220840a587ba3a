// Command example inserts an order and reads it back through a prepared
// statement. Build it with the mysqlclient tag to link the native library:
//
//	go run -tags mysqlclient . -config config.yaml
//
// It expects this table:
//
//	CREATE TABLE orders (id BINARY(16) PRIMARY KEY, qty INT, total DECIMAL(12,2), note VARCHAR(64));
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	mysqlclient "github.com/LadybugDB/go-mysqlclient"
	"github.com/LadybugDB/go-mysqlclient/native/cmysql"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := mysqlclient.LoadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	logger, err := mysqlclient.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("example failed", zap.Error(err))
	}
}

func run(cfg *mysqlclient.Config, logger *zap.Logger) error {
	driver, err := cmysql.New()
	if err != nil {
		return err
	}

	lib, err := mysqlclient.AcquireLibrary(driver,
		mysqlclient.WithLibraryConfig(cfg.Library), mysqlclient.WithLogger(logger))
	if err != nil {
		return err
	}
	defer lib.Release()

	conn, err := mysqlclient.NewConnection(lib)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := conn.ConnectConfig(cfg.Connection); err != nil {
		return err
	}
	logger.Info("connected", zap.Uint64("server_version", conn.ServerVersion()))

	id := uuid.New()
	if err := insertOrder(conn, id, 3, decimal.RequireFromString("59.97"), "three widgets"); err != nil {
		return err
	}
	return printOrder(conn, id)
}

func insertOrder(conn *mysqlclient.Connection, id uuid.UUID, qty int32, total decimal.Decimal, note string) error {
	stmt, err := mysqlclient.NewPreparedStatement(conn)
	if err != nil {
		return err
	}
	defer stmt.Close()

	if err := stmt.Prepare("INSERT INTO orders (id, qty, total, note) VALUES (?, ?, ?, ?)"); err != nil {
		return err
	}

	totalBuf := make([]byte, 32)
	totalLen, err := mysqlclient.FormatDecimal(total, totalBuf)
	if err != nil {
		return err
	}

	if err := stmt.AddParameter(&id); err != nil {
		return err
	}
	if err := stmt.AddParameter(&qty); err != nil {
		return err
	}
	stmt.AddDecimalParameter(totalBuf)
	if err := stmt.SetParameterLength(2, totalLen); err != nil {
		return err
	}
	if err := stmt.AddParameter(note); err != nil {
		return err
	}
	if err := stmt.BindParameters(); err != nil {
		return err
	}
	return stmt.Execute()
}

func printOrder(conn *mysqlclient.Connection, id uuid.UUID) error {
	stmt, err := mysqlclient.NewPreparedStatement(conn)
	if err != nil {
		return err
	}
	defer stmt.Close()

	if err := stmt.Prepare("SELECT qty, total, note FROM orders WHERE id = ?"); err != nil {
		return err
	}

	var qty int32
	totalBuf := make([]byte, 32)
	noteBuf := make([]byte, 64)

	if err := stmt.AddParameter(&id); err != nil {
		return err
	}
	if err := stmt.AddResult(&qty); err != nil {
		return err
	}
	stmt.AddDecimalResult(totalBuf)
	stmt.AddTextResult(noteBuf)
	if err := stmt.BindParameters(); err != nil {
		return err
	}
	if err := stmt.BindResults(); err != nil {
		return err
	}
	if err := stmt.Execute(); err != nil {
		return err
	}
	defer stmt.Stop()

	for {
		ok, err := stmt.Fetch()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		total, err := stmt.ResultDecimal(1, totalBuf)
		if err != nil {
			return err
		}
		noteLen, _ := stmt.ResultLength(2)
		fmt.Printf("order %s: qty=%d total=%s note=%q\n", id, qty, total.Decimal, noteBuf[:noteLen])
	}
}

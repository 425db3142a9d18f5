package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
	"github.com/golang/glog"

	"github.com/hb9tf/spectrelay/collector"
	"github.com/hb9tf/spectrelay/export"
	"github.com/hb9tf/spectrelay/sweep"

	// Blind import support for sqlite3 used by sql.go.
	_ "github.com/mattn/go-sqlite3"
)

var (
	listen   = flag.String("listen", ":8080", "Address and port to serve the collector on.")
	endpoint = flag.String("endpoint", collector.DefaultEndpoint, "Path of the sweep endpoint.")
	certFile = flag.String("certFile", "", "Path of the file containing the certificate (including the chained intermediates and root) for the TLS connection.")
	keyFile  = flag.String("keyFile", "", "Path of the file containing the key for the TLS connection.")
	output   = flag.String("output", "none", "Archive for received sweeps (one of: none, csv, sqlite, mysql)")

	// SQLite
	sqliteFile = flag.String("sqliteFile", "/tmp/spectrelay", "File path of the sqlite DB file to use.")

	// MySQL
	mysqlServer       = flag.String("mysqlServer", "127.0.0.1:3306", "MySQL TCP server endpoint to connect to (IP/DNS and port).")
	mysqlUser         = flag.String("mysqlUser", "", "MySQL DB user.")
	mysqlPasswordFile = flag.String("mysqlPasswordFile", "", "Path to the file containing the password for the MySQL user.")
	mysqlDBName       = flag.String("mysqlDBName", "spectrelay", "Name of the DB to use.")
)

func main() {
	ctx := context.Background()
	// Set defaults for glog flags. Can be overridden via cmdline.
	flag.Set("logtostderr", "false")
	flag.Set("stderrthreshold", "WARNING")
	flag.Set("v", "1")
	// Parse flags globally.
	flag.Parse()

	// Exporter setup
	var exporter export.Exporter
	switch strings.ToLower(*output) {
	case "", "none":
	case "csv":
		exporter = &export.CSV{}
	case "sqlite":
		db, err := sql.Open("sqlite3", *sqliteFile)
		if err != nil {
			glog.Exitf("unable to open sqlite DB %q: %s", *sqliteFile, err)
		}
		exporter = &export.SQL{
			DB: db,
		}
	case "mysql":
		pass, err := os.ReadFile(*mysqlPasswordFile)
		if err != nil {
			glog.Exitf("unable to read MySQL password file %q: %s\n", *mysqlPasswordFile, err)
		}
		cfg := mysql.NewConfig()
		cfg.User = *mysqlUser
		cfg.Passwd = strings.TrimSpace(string(pass))
		cfg.Net = "tcp"
		cfg.Addr = *mysqlServer
		cfg.DBName = *mysqlDBName
		db, err := sql.Open("mysql", cfg.FormatDSN())
		if err != nil {
			glog.Exitf("unable to open MySQL DB %q: %s", *mysqlServer, err)
		}
		db.SetConnMaxLifetime(3 * time.Minute)
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		exporter = &export.SQL{
			DB: db,
		}
	default:
		glog.Exitf("%q is not a supported export method, pick one of: none, csv, sqlite, mysql", *output)
	}

	store := &collector.Store{}

	// Archive sweeps.
	if exporter != nil {
		sweeps := make(chan *sweep.Sweep, 1000)
		store.Export = sweeps
		go func() {
			if err := exporter.Write(ctx, sweeps); err != nil {
				glog.Fatal(err)
			}
		}()
	}

	// Configure and run webserver.
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	(&collector.Server{
		Store:    store,
		Endpoint: *endpoint,
	}).Register(r)

	glog.Infof("Serving sweeps on %s%s\n", *listen, *endpoint)
	if *certFile != "" || *keyFile != "" {
		glog.Fatal(r.RunTLS(*listen, *certFile, *keyFile))
	} else {
		glog.Infoln("Resorting to serving HTTP because there was no certificate and key defined.")
		glog.Fatal(r.Run(*listen))
	}

	glog.Flush()
}

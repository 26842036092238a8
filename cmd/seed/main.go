package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/config"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/domain"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/repository"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/seed"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var file string
	var n int
	var days int
	var unassigned int
	var emailDomain string
	var password string

	flag.StringVar(&file, "file", "", "要导入的 YAML 排班数据，例如 internal/seed/data/roster.yaml")
	flag.IntVar(&n, "random", 0, "要插入的随机员工数量")
	flag.IntVar(&days, "days", 14, "随机数据覆盖的天数，从发薪周期基准日期开始")
	flag.IntVar(&unassigned, "unassigned", 20, "要插入的随机未分配班次数量")
	flag.StringVar(&emailDomain, "email-domain", "example.com", "随机员工邮箱的域名")
	flag.StringVar(&password, "hash", "", "输出该密码的 bcrypt 哈希后退出，用于 OPERATOR_PASSWORD_HASH")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// 生成哈希不需要数据库
	if password != "" {
		hash, err := utils.HashPassword(password)
		if err != nil {
			logger.Error("无法生成密码哈希", slog.String("error", err.Error()))
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	if file == "" && n <= 0 {
		logger.Error("未指定操作，请使用 -file 或 -random")
		os.Exit(1)
	}

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cal, err := cfg.Calendar()
	if err != nil {
		logger.Error("无法构造发薪周期日历", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 先准备好数据，避免连上数据库后才发现文件有误
	var roster *domain.Roster
	if file != "" {
		roster, err = seed.LoadFile(file, cal)
		if err != nil {
			logger.Error("无法读取排班数据文件", slog.String("file", file), slog.String("error", err.Error()))
			os.Exit(1)
		}
	} else {
		roster, err = utils.GenerateRandomRoster(cal, cal.Reference, days, n, unassigned, emailDomain)
		if err != nil {
			logger.Error("无法生成随机排班数据", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	// 创建 repository
	repo := repository.NewRepository(cfg, dbpool)

	counts, err := seed.Insert(repo, roster, logger)
	logger.Info("插入排班数据完成",
		slog.Int("employees", counts.Employees),
		slog.Int("shifts", counts.Shifts),
		slog.Int("leave", counts.Leave),
		slog.Int("unassigned", counts.Unassigned),
	)
	if err != nil {
		logger.Error("部分数据插入失败", slog.String("error", err.Error()))
	}
}

package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/config"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/notify"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/optimizer"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/pipeline"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/report"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/repository"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/tui"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var auto bool
	var publish bool

	flag.BoolVar(&auto, "auto", false, "自动接受所有提议，不启动交互界面")
	flag.BoolVar(&publish, "notify", false, "通过 rabbitmq 发送排班邮件，否则只写入日志")
	flag.Parse()

	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * 加载配置
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法加载配置文件", "error", err)
		os.Exit(1)
	}

	cal, err := cfg.Calendar()
	if err != nil {
		logger.Error("无法构造发薪周期日历", "error", err)
		os.Exit(1)
	}

	cutoff, err := cfg.Cutoff()
	if err != nil {
		logger.Error("无法解析排班截止日期", "error", err)
		os.Exit(1)
	}

	/**********************************************
	 * 连接数据库
	 **********************************************/
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		os.Exit(1)
	}

	repo := repository.NewRepository(cfg, dbpool)

	/**********************************************
	 * 读取排班数据并构造各组件
	 **********************************************/
	roster, err := repo.LoadRoster(cal, cutoff)
	if err != nil {
		logger.Error("无法读取排班数据", "error", err)
		os.Exit(1)
	}

	p := pipeline.New(roster, pipeline.OptionsFromConfig(cfg, time.Now()), logger)

	/**********************************************
	 * 逐个处理提议
	 **********************************************/
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var accepted []*optimizer.Assignment
	if auto {
		err = p.Optimizer.Run(runCtx, func(ctx context.Context, a *optimizer.Assignment) (bool, error) {
			if err := repo.SaveAssignment(a); err != nil {
				return false, err
			}
			accepted = append(accepted, a)
			return true, nil
		})
		if err != nil {
			logger.Error("自动排班中断", "error", err)
		}
	} else {
		m, err := tui.Run(runCtx, tui.New(p.Optimizer, p.Roster, repo.SaveAssignment))
		if err != nil {
			logger.Error("交互界面异常退出", "error", err)
		}
		accepted = m.Accepted()
		if !m.Done() {
			logger.Info("操作员提前结束，剩余班次保持未分配")
		}
	}

	summary := p.Optimizer.Summary()
	logger.Info("排班结束",
		slog.Int("total", summary.Total),
		slog.Int("assigned", summary.Assigned),
		slog.Int("remaining", summary.Remaining),
		slog.Int("unfillable", len(summary.Unfillable)),
	)

	/**********************************************
	 * 合规检查
	 **********************************************/
	// 先取出上一次的结果，再写入本次的报告
	previouslyFailed, err := repo.GetFailedEmployeeCodes()
	if err != nil {
		logger.Error("无法读取上一次的合规结果", "error", err)
	}
	stillFailing := make(map[string]bool, len(previouslyFailed))
	for _, code := range previouslyFailed {
		stillFailing[code] = true
	}

	reports := p.ValidateAll()
	failed := 0
	for _, r := range reports {
		if _, err := repo.InsertComplianceReport(r); err != nil {
			logger.Error("无法保存合规报告", "employee", r.EmployeeCode, "error", err)
		}
		if !r.Passed {
			failed++
			if stillFailing[r.EmployeeCode] {
				logger.Warn("员工连续两次未通过合规检查", "employee", r.EmployeeCode, "name", r.EmployeeName)
			}
		}
	}
	logger.Info("合规检查完成", slog.Int("employees", len(reports)), slog.Int("failed", failed))

	/**********************************************
	 * 生成 PDF 报告
	 **********************************************/
	gen := report.New(cfg.Report.OutputDir)
	if path, err := gen.ComplianceFile(reports); err != nil {
		logger.Error("无法生成合规报告", "error", err)
	} else {
		logger.Info("合规报告已生成", "path", path)
	}
	if path, err := gen.SummaryFile(summary, p.Roster.Stats()); err != nil {
		logger.Error("无法生成排班汇总", "error", err)
	} else {
		logger.Info("排班汇总已生成", "path", path)
	}

	/**********************************************
	 * 发送排班邮件
	 **********************************************/
	var notifier notify.Notifier = notify.NewLogNotifier(logger)
	if publish {
		conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
		if err != nil {
			logger.Error("无法连接到 rabbitmq", "error", err)
			os.Exit(1)
		}
		defer conn.Close()

		ch, err := conn.Channel()
		if err != nil {
			logger.Error("无法建立通道", "error", err)
			os.Exit(1)
		}
		defer ch.Close()

		if _, err := ch.QueueDeclare(notify.QueueName, true, false, false, false, nil); err != nil {
			logger.Error("无法声明队列", "error", err)
			os.Exit(1)
		}

		notifier = notify.NewAMQPNotifier(ch, time.Duration(cfg.RabbitMQ.PublishTimeout)*time.Second)
	}

	messages, missing := notify.OffersByEmployee(p.Roster, accepted)
	for _, code := range missing {
		logger.Warn("员工没有邮箱，无法发送排班邮件", "employee", code)
	}
	for _, msg := range messages {
		if err := notifier.Send(context.Background(), msg); err != nil {
			logger.Error("无法发送排班邮件", "to", msg.To, "error", err)
		}
	}

	if cfg.Notify.AlertRecipient != "" {
		for _, u := range summary.Unfillable {
			msg := notify.UnfillableAlert(cfg.Notify.AlertRecipient, u, p.Optimizer.Difficulty(u.Shift))
			if err := notifier.Send(context.Background(), msg); err != nil {
				logger.Error("无法发送无人可排提醒", "error", err)
			}
		}
	}
}

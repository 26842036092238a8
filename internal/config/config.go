package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/combiner"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/compliance"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/domain"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/optimizer"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/rules"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"15"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Database struct {
		DSN                string `env:"DSN,required"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"20"`
		MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	Operator struct {
		Username     string `env:"USERNAME" envDefault:"operator"`
		PasswordHash string `env:"PASSWORD_HASH,required"` // bcrypt
	} `envPrefix:"OPERATOR_"`
	JWT struct {
		Expiration int    `env:"EXPIRATION" envDefault:"43200"` // 12 小时
		Secret     string `env:"SECRET,required"`
	} `envPrefix:"JWT_"`
	Email struct {
		SMTP struct {
			Username    string `env:"USERNAME,required"`
			Password    string `env:"PASSWORD,required"`
			Host        string `env:"HOST,required"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN            string `env:"DSN,required"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host                string `env:"HOST" envDefault:"localhost"`
		Port                int    `env:"PORT" envDefault:"6379"`
		Password            string `env:"PASSWORD,required"`
		ConnectTimeout      int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		OperationExpiration int    `env:"OPERATION_EXPIRATION" envDefault:"10"`
	} `envPrefix:"REDIS_"`
	Notify struct {
		AlertRecipient string `env:"ALERT_RECIPIENT"` // 为空时不发送无人可排提醒
	} `envPrefix:"NOTIFY_"`
	Proposal struct {
		Expiration int `env:"EXPIRATION" envDefault:"1800"` // 30 分钟
	} `envPrefix:"PROPOSAL_"`
	Roster struct {
		ReferenceDate string   `env:"REFERENCE_DATE" envDefault:"2024-10-01"` // 第 1 个发薪周期的第一天
		CycleDays     int      `env:"CYCLE_DAYS" envDefault:"14"`
		Cutoff        string   `env:"CUTOFF"`                    // 为空表示不限制
		Locations     []string `env:"LOCATIONS" envSeparator:","` // 为空表示保留所有地区
	} `envPrefix:"ROSTER_"`
	Rules struct {
		WindowHours           int      `env:"WINDOW_HOURS" envDefault:"12"`
		DailyNetCeiling       float64  `env:"DAILY_NET_CEILING" envDefault:"10"`
		ExactMatchDepartments []string `env:"EXACT_MATCH_DEPARTMENTS" envSeparator:"," envDefault:"IHS,SIL"`
	} `envPrefix:"RULES_"`
	Combiner struct {
		ExcludedDepartments     []string `env:"EXCLUDED_DEPARTMENTS" envSeparator:"," envDefault:"IHS"`
		SleepoverLookbackHours  int      `env:"SLEEPOVER_LOOKBACK_HOURS" envDefault:"4"`
		PostSleepoverCutoffHour int      `env:"POST_SLEEPOVER_CUTOFF_HOUR" envDefault:"6"`
		CombinedCeiling         float64  `env:"COMBINED_CEILING" envDefault:"10"`
		ShortShiftHours         float64  `env:"SHORT_SHIFT_HOURS" envDefault:"2"`
		MaxComponents           int      `env:"MAX_COMPONENTS" envDefault:"4"`
		RoleSeparator           string   `env:"ROLE_SEPARATOR" envDefault:"-"`
		GenericRole             string   `env:"GENERIC_ROLE" envDefault:"SUPPORT WORKER"`
	} `envPrefix:"COMBINER_"`
	Optimizer struct {
		DifficultyThreshold float64 `env:"DIFFICULTY_THRESHOLD" envDefault:"2"`
	} `envPrefix:"OPTIMIZER_"`
	Compliance struct {
		PendingLeaveHorizon int     `env:"PENDING_LEAVE_HORIZON" envDefault:"45"` // 天
		FortnightFloor      float64 `env:"FORTNIGHT_FLOOR" envDefault:"12"`
	} `envPrefix:"COMPLIANCE_"`
	Report struct {
		OutputDir string `env:"OUTPUT_DIR" envDefault:"reports"`
	} `envPrefix:"REPORT_"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// 只返回第一个错误使得日志更清晰
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	return cfg, nil
}

// Calendar 根据配置的基准日期构造发薪周期日历
func (cfg *Config) Calendar() (domain.Calendar, error) {
	reference, err := parseDate(cfg.Roster.ReferenceDate)
	if err != nil {
		return domain.Calendar{}, fmt.Errorf("ROSTER_REFERENCE_DATE: %w", err)
	}
	return domain.NewCalendar(reference, cfg.Roster.CycleDays), nil
}

// Cutoff 返回排班截止日期，未配置时返回零值
func (cfg *Config) Cutoff() (time.Time, error) {
	if cfg.Roster.Cutoff == "" {
		return time.Time{}, nil
	}
	cutoff, err := parseDate(cfg.Roster.Cutoff)
	if err != nil {
		return time.Time{}, fmt.Errorf("ROSTER_CUTOFF: %w", err)
	}
	return cutoff, nil
}

func (cfg *Config) RulesParameters() *rules.Parameters {
	params := rules.DefaultParameters()
	params.WindowLength = time.Duration(cfg.Rules.WindowHours) * time.Hour
	params.DailyNetCeiling = cfg.Rules.DailyNetCeiling
	params.ExactMatchDepartments = cfg.Rules.ExactMatchDepartments
	return params
}

func (cfg *Config) CombinerParameters() *combiner.Parameters {
	params := combiner.DefaultParameters()
	params.ExcludedDepartments = cfg.Combiner.ExcludedDepartments
	params.SleepoverLookback = time.Duration(cfg.Combiner.SleepoverLookbackHours) * time.Hour
	params.PostSleepoverCutoffHour = cfg.Combiner.PostSleepoverCutoffHour
	params.CombinedCeiling = cfg.Combiner.CombinedCeiling
	params.ShortShiftHours = cfg.Combiner.ShortShiftHours
	params.MaxComponents = cfg.Combiner.MaxComponents
	params.RoleSeparator = cfg.Combiner.RoleSeparator
	params.GenericRole = cfg.Combiner.GenericRole
	return params
}

func (cfg *Config) OptimizerParameters() *optimizer.Parameters {
	params := optimizer.DefaultParameters()
	params.DifficultyThreshold = cfg.Optimizer.DifficultyThreshold
	params.ShortShiftHours = cfg.Combiner.ShortShiftHours
	return params
}

func (cfg *Config) ComplianceParameters() *compliance.Parameters {
	params := compliance.DefaultParameters()
	params.WindowLength = time.Duration(cfg.Rules.WindowHours) * time.Hour
	params.DailyNetCeiling = cfg.Rules.DailyNetCeiling
	params.ShortShiftHours = cfg.Combiner.ShortShiftHours
	params.PendingLeaveHorizon = cfg.Compliance.PendingLeaveHorizon
	params.FortnightFloor = cfg.Compliance.FortnightFloor
	return params
}

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, s, time.Local)
}

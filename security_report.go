package portalgate

import "time"

// SecurityReport summarizes the deployment posture of a built engine.
type SecurityReport struct {
	ProductionMode     bool
	SessionTTL         time.Duration
	TokenBits          int
	SweepStrategy      string
	BindRemoteIP       bool
	AssertionsEnabled  bool
	AssertionAlgorithm string
	AssertionTTL       time.Duration
	AuditEnabled       bool
	AuditDropIfFull    bool
	Argon2             PasswordConfigReport
}

type PasswordConfigReport struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	r := SecurityReport{
		ProductionMode:    e.config.Security.ProductionMode,
		SessionTTL:        e.config.Session.TTL,
		TokenBits:         e.config.Session.TokenBytes * 8,
		SweepStrategy:     e.config.Session.Sweep,
		BindRemoteIP:      e.config.Security.BindRemoteIP,
		AssertionsEnabled: e.assertions != nil,
		AuditEnabled:      e.config.Audit.Enabled,
		AuditDropIfFull:   e.config.Audit.Enabled && e.config.Audit.DropIfFull,
		Argon2: PasswordConfigReport{
			Memory:      e.config.Password.Memory,
			Time:        e.config.Password.Time,
			Parallelism: e.config.Password.Parallelism,
			SaltLength:  e.config.Password.SaltLength,
			KeyLength:   e.config.Password.KeyLength,
		},
	}
	if r.SweepStrategy == "" {
		r.SweepStrategy = "scan"
	}
	if r.AssertionsEnabled {
		r.AssertionAlgorithm = e.config.Assertion.SigningMethod
		r.AssertionTTL = e.config.Assertion.TTL
	}
	return r
}

package domain

import "time"

type AdmissionStatus string

const (
	AdmissionAdmitted    AdmissionStatus = "admitted"
	AdmissionDuplicate   AdmissionStatus = "duplicate"
	AdmissionRateLimited AdmissionStatus = "rate_limited"
	AdmissionInvalid     AdmissionStatus = "invalid"
)

// Admission is the tagged outcome of the anti-abuse gate. Callers
// switch on Status instead of unwinding errors: a duplicate is a
// successful no-op, and a rate-limited request carries a retry hint.
type Admission struct {
	Status     AdmissionStatus
	Count      int64
	RetryAfter time.Duration
	Reason     string
}

func Admitted(count int64) Admission {
	return Admission{Status: AdmissionAdmitted, Count: count}
}

func Duplicate(count int64) Admission {
	return Admission{Status: AdmissionDuplicate, Count: count}
}

func RateLimited(retryAfter time.Duration) Admission {
	return Admission{Status: AdmissionRateLimited, RetryAfter: retryAfter}
}

func Invalid(reason string) Admission {
	return Admission{Status: AdmissionInvalid, Reason: reason}
}

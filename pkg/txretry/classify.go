package txretry

import (
	"errors"
	"regexp"

	"github.com/go-sql-driver/mysql"
)

// Class tells the retry loop what to do with a failed attempt.
type Class int

const (
	// Terminal errors are returned to the caller as they are.
	Terminal Class = iota
	// Transient errors may succeed on a fresh transaction.
	Transient
)

func (c Class) String() string {
	if c == Transient {
		return "transient"
	}
	return "terminal"
}

// Classifier decides whether an error is worth another attempt.
type Classifier interface {
	Classify(err error) Class
}

// ClassifierFunc adapts a plain function to Classifier.
type ClassifierFunc func(err error) Class

// Classify implements Classifier.
func (f ClassifierFunc) Classify(err error) Class {
	return f(err)
}

// DefaultPatterns match the contention messages emitted by MySQL and PostgreSQL.
var DefaultPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)deadlock`),
	regexp.MustCompile(`(?i)lock wait timeout exceeded`),
	regexp.MustCompile(`(?i)could not serialize access`),
	regexp.MustCompile(`(?i)serialization failure`),
}

// PatternClassifier reports Transient when any pattern matches the error message.
// A nil or empty pattern list falls back to DefaultPatterns.
func PatternClassifier(patterns ...*regexp.Regexp) Classifier {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	return ClassifierFunc(func(err error) Class {
		if err == nil {
			return Terminal
		}
		msg := err.Error()
		for _, p := range patterns {
			if p.MatchString(msg) {
				return Transient
			}
		}
		return Terminal
	})
}

// MySQL server error numbers for lock contention.
const (
	mysqlErrLockWaitTimeout uint16 = 1205
	mysqlErrLockDeadlock    uint16 = 1213
)

// MySQLClassifier checks the driver error number first and falls back to
// message patterns for errors that did not come straight from the server.
func MySQLClassifier(patterns ...*regexp.Regexp) Classifier {
	fallback := PatternClassifier(patterns...)
	return ClassifierFunc(func(err error) Class {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) {
			switch myErr.Number {
			case mysqlErrLockDeadlock, mysqlErrLockWaitTimeout:
				return Transient
			}
		}
		return fallback.Classify(err)
	})
}

package services

import (
	"regexp"
	"strings"
)

// StatementType represents the type of SQL statement.
type StatementType int

const (
	StatementTypeDDL     StatementType = iota // CREATE, DROP, ALTER, TRUNCATE
	StatementTypeDML                          // INSERT, UPDATE, DELETE, MERGE
	StatementTypeDQL                          // SELECT, WITH...SELECT, VALUES
	StatementTypeTCL                          // BEGIN, COMMIT, ROLLBACK
	StatementTypeUtility                      // SHOW, DESCRIBE, EXPLAIN, PRAGMA
	StatementTypeOther
)

// String returns the string representation of the statement type.
func (st StatementType) String() string {
	switch st {
	case StatementTypeDDL:
		return "DDL"
	case StatementTypeDML:
		return "DML"
	case StatementTypeDQL:
		return "DQL"
	case StatementTypeTCL:
		return "TCL"
	case StatementTypeUtility:
		return "UTILITY"
	case StatementTypeOther:
		return "OTHER"
	default:
		return "UNKNOWN"
	}
}

// Explainable reports whether a plan can be requested for the statement.
func (st StatementType) Explainable() bool {
	return st == StatementTypeDQL || st == StatementTypeDML
}

var (
	lineComment  = regexp.MustCompile(`--[^\n]*`)
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)

	statementPatterns = []struct {
		kind    StatementType
		pattern *regexp.Regexp
	}{
		{StatementTypeDQL, regexp.MustCompile(`(?is)^\s*WITH\s+.*\bSELECT\b`)},
		{StatementTypeDQL, regexp.MustCompile(`(?i)^\s*\(?\s*SELECT\b`)},
		{StatementTypeDQL, regexp.MustCompile(`(?i)^\s*(VALUES|TABLE|FROM)\b`)},
		{StatementTypeDML, regexp.MustCompile(`(?i)^\s*(INSERT|UPDATE|DELETE|MERGE|COPY)\b`)},
		{StatementTypeDDL, regexp.MustCompile(`(?i)^\s*(CREATE|DROP|ALTER|TRUNCATE|COMMENT\s+ON)\b`)},
		{StatementTypeTCL, regexp.MustCompile(`(?i)^\s*(BEGIN|START\s+TRANSACTION|COMMIT|ROLLBACK|SAVEPOINT)\b`)},
		{StatementTypeUtility, regexp.MustCompile(`(?i)^\s*(SHOW|DESCRIBE|DESC|EXPLAIN|ANALYZE|SET|USE|PRAGMA|ATTACH|DETACH|CHECKPOINT|VACUUM)\b`)},
	}
)

// ClassifyStatement determines the type of a SQL statement. Comments are
// ignored.
func ClassifyStatement(sql string) StatementType {
	cleaned := blockComment.ReplaceAllString(sql, " ")
	cleaned = lineComment.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return StatementTypeOther
	}

	for _, p := range statementPatterns {
		if p.pattern.MatchString(cleaned) {
			return p.kind
		}
	}
	return StatementTypeOther
}

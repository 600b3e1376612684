package db

const (
	queryGetActiveVerification = `
SELECT id, kind, target, code_hash, secret, algorithm, valid_seconds, expires_at, created_at
FROM recovery_verifications
WHERE kind = $1 AND target = $2 AND code_hash = $3
  AND (expires_at IS NULL OR expires_at > $4)
LIMIT 1`

	queryGetIdentityByLogin = `
SELECT email, username
FROM users
WHERE email = $1 OR username = $1
LIMIT 1`

	queryDeleteVerificationsByTarget = `
DELETE FROM recovery_verifications
WHERE kind = $1 AND target = $2`

	queryCreateVerification = `
INSERT INTO recovery_verifications (id, kind, target, code_hash, secret, algorithm, valid_seconds, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	queryConsumeVerification = `
DELETE FROM recovery_verifications
WHERE kind = $1 AND target = $2 AND code_hash = $3`

	queryDeleteExpiredVerifications = `
DELETE FROM recovery_verifications
WHERE expires_at IS NOT NULL AND expires_at <= $1`
)

// workers/audit_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"prize-hunt-system/models"
	"prize-hunt-system/utils"

	"github.com/google/uuid"
)

// AuditArchiver ships denied-claim signal snapshots to the R2 audit bucket
// for offline review. Best-effort: an upload failure loses one record, never
// a claim.
type AuditArchiver struct {
	audits <-chan models.AntiCheatAuditRecord
}

func NewAuditArchiver(audits <-chan models.AntiCheatAuditRecord) *AuditArchiver {
	return &AuditArchiver{audits: audits}
}

// Start consumes the audit queue until the context is cancelled.
func (a *AuditArchiver) Start(ctx context.Context) {
	log.Println("Starting anti-cheat audit archiver...")
	for {
		select {
		case <-ctx.Done():
			log.Println("Audit archiver stopped.")
			return
		case record, ok := <-a.audits:
			if !ok {
				return
			}
			a.archive(record)
		}
	}
}

func (a *AuditArchiver) archive(record models.AntiCheatAuditRecord) {
	payload, err := json.Marshal(record)
	if err != nil {
		log.Printf("❌ [AUDIT] failed to marshal audit record for %s: %v", record.ExternalUserID, err)
		return
	}

	key := fmt.Sprintf("anticheat/%s/%s.json",
		record.DeniedAt.UTC().Format("2006/01/02"), uuid.NewString())
	if err := utils.UploadBytesToR2(key, payload, "application/json"); err != nil {
		log.Printf("❌ [AUDIT] failed to archive denial for %s: %v", record.ExternalUserID, err)
		return
	}
	log.Printf("📥 Archived anti-cheat denial for %s (risk=%d)", record.ExternalUserID, record.RiskScore)
}

package db

import (
	"fmt"
	"strings"

	types "github.com/gradlink/gradlink-backend/internal/domain"
	"gorm.io/gorm"
)

// AutoMigrateAll migrates the schema and installs the change-notify
// triggers on notifyChannel, the channel the change listener subscribes
// to.
func AutoMigrateAll(db *gorm.DB, notifyChannel string) error {
	if err := db.AutoMigrate(

		// Identity + profiles
		&types.User{},
		&types.Student{},
		&types.Supervisor{},

		// Tag catalog + similarity graph
		&types.Tag{},
		&types.TagAffinity{},
		&types.TagSimilarity{},

		// Request ledger + exclusions
		&types.SupervisionRequest{},
		&types.Block{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	if err := addForeignKeys(db); err != nil {
		return err
	}
	return installChangeNotifyTriggers(db, notifyChannel)
}

func addForeignKeys(db *gorm.DB) error {
	stmts := []string{
		`ALTER TABLE "student" DROP CONSTRAINT IF EXISTS "fk_student_user_id";
		 ALTER TABLE "student" ADD CONSTRAINT "fk_student_user_id"
		 FOREIGN KEY ("user_id") REFERENCES "user"("id") ON DELETE CASCADE`,
		`ALTER TABLE "supervisor" DROP CONSTRAINT IF EXISTS "fk_supervisor_user_id";
		 ALTER TABLE "supervisor" ADD CONSTRAINT "fk_supervisor_user_id"
		 FOREIGN KEY ("user_id") REFERENCES "user"("id") ON DELETE CASCADE`,
		`ALTER TABLE "tag_affinity" DROP CONSTRAINT IF EXISTS "fk_tag_affinity_tag_id";
		 ALTER TABLE "tag_affinity" ADD CONSTRAINT "fk_tag_affinity_tag_id"
		 FOREIGN KEY ("tag_id") REFERENCES "tag"("id") ON DELETE CASCADE`,
		`ALTER TABLE "supervision_request" DROP CONSTRAINT IF EXISTS "fk_request_student_id";
		 ALTER TABLE "supervision_request" ADD CONSTRAINT "fk_request_student_id"
		 FOREIGN KEY ("student_id") REFERENCES "student"("id") ON DELETE RESTRICT`,
		`ALTER TABLE "supervision_request" DROP CONSTRAINT IF EXISTS "fk_request_supervisor_id";
		 ALTER TABLE "supervision_request" ADD CONSTRAINT "fk_request_supervisor_id"
		 FOREIGN KEY ("supervisor_id") REFERENCES "supervisor"("id") ON DELETE RESTRICT`,
		`ALTER TABLE "supervisor" DROP CONSTRAINT IF EXISTS "chk_supervisor_spots";
		 ALTER TABLE "supervisor" ADD CONSTRAINT "chk_supervisor_spots"
		 CHECK (available_spots >= 0 AND available_spots <= total_spots)`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migrate constraints: %w", err)
		}
	}
	return nil
}

// installChangeNotifyTriggers wires row mutations on identity and tag
// tables onto the single logical notification channel the change
// listener subscribes to.
func installChangeNotifyTriggers(db *gorm.DB, channel string) error {
	fn := fmt.Sprintf(`
CREATE OR REPLACE FUNCTION gradlink_notify_change() RETURNS trigger AS $$
DECLARE
  payload jsonb;
  row_id text;
BEGIN
  payload := jsonb_build_object('table', TG_TABLE_NAME, 'operation', TG_OP);
  IF TG_TABLE_NAME = 'user' THEN
    IF TG_OP = 'DELETE' THEN
      row_id := OLD.id::text;
    ELSE
      row_id := NEW.id::text;
    END IF;
    payload := payload || jsonb_build_object('identity_key', row_id);
  END IF;
  PERFORM pg_notify('%s', payload::text);
  IF TG_OP = 'DELETE' THEN
    RETURN OLD;
  END IF;
  RETURN NEW;
END;
$$ LANGUAGE plpgsql;`, strings.ReplaceAll(channel, "'", "''"))
	if err := db.Exec(fn).Error; err != nil {
		return fmt.Errorf("install notify function: %w", err)
	}

	for _, table := range []string{"user", "tag", "tag_similarity"} {
		stmt := fmt.Sprintf(`
DROP TRIGGER IF EXISTS trg_notify_change ON %q;
CREATE TRIGGER trg_notify_change
AFTER INSERT OR UPDATE OR DELETE ON %q
FOR EACH ROW EXECUTE FUNCTION gradlink_notify_change();`, table, table)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("install notify trigger on %s: %w", table, err)
		}
	}
	return nil
}

// Command migrate rebuilds the development database from scratch: drops
// every table, recreates the schema from the bun models, and seeds a
// small working data set. Never point it at production.
package main

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"ms-landscaping/internal/config"
	"ms-landscaping/internal/models"
)

func main() {
	ctx := context.Background()

	cfg := config.Load()
	connector := pgdriver.NewConnector(pgdriver.WithDSN(cfg.Database.DSN))
	sqldb := sql.OpenDB(connector)
	defer sqldb.Close()

	if err := sqldb.PingContext(ctx); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())

	log.Println("Dropping tables...")
	_ = dropTables(ctx, db)

	log.Println("Creating tables...")
	_ = createTables(ctx, db)

	log.Println("Seeding sample data...")
	_ = seedData(ctx, db)

	log.Println("✅ Done.")
}

func dropTables(ctx context.Context, db *bun.DB) error {
	// Reverse dependency order.
	tables := []interface{}{
		(*models.SetupDigging)(nil),
		(*models.EquipmentUsage)(nil),
		(*models.Equipment)(nil),
		(*models.AdditionalMaterial)(nil),
		(*models.MaterialDelivery)(nil),
		(*models.MaterialDelivered)(nil),
		(*models.AdditionalTask)(nil),
		(*models.EventTask)(nil),
		(*models.TaskProgressEntry)(nil),
		(*models.TaskDone)(nil),
		(*models.Event)(nil),
		(*models.Profile)(nil),
	}
	for _, m := range tables {
		_, _ = db.NewDropTable().Model(m).IfExists().Cascade().Exec(ctx)
	}
	return nil
}

func createTables(ctx context.Context, db *bun.DB) error {
	tables := []interface{}{
		(*models.Profile)(nil),
		(*models.Event)(nil),
		(*models.TaskDone)(nil),
		(*models.TaskProgressEntry)(nil),
		(*models.EventTask)(nil),
		(*models.AdditionalTask)(nil),
		(*models.MaterialDelivered)(nil),
		(*models.MaterialDelivery)(nil),
		(*models.AdditionalMaterial)(nil),
		(*models.Equipment)(nil),
		(*models.EquipmentUsage)(nil),
		(*models.SetupDigging)(nil),
	}
	for _, m := range tables {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			log.Fatalf("❌ Failed to create table for %T: %v", m, err)
		}
	}
	return nil
}

func seedData(ctx context.Context, db *bun.DB) error {
	profiles := []models.Profile{
		{ProfileID: "crew-lead-1", FullName: "Marta Keller", Role: "crew_lead", Phone: "+1-555-0101", CreatedAt: time.Now()},
		{ProfileID: "crew-1", FullName: "Deshawn Price", Role: "crew", Phone: "+1-555-0102", CreatedAt: time.Now()},
	}
	_, _ = db.NewInsert().Model(&profiles).Exec(ctx)

	event := models.Event{
		EventID:     "evt-seed-1",
		Name:        "Riverside Garden Build",
		ClientName:  "Harper Estate",
		Location:    "14 Riverside Dr",
		Description: "Full backyard rebuild with patio and irrigation",
		StartDate:   time.Now().AddDate(0, 0, -7),
		EndDate:     time.Now().AddDate(0, 0, 14),
		Status:      models.EventStatusInProgress,
		CreatedBy:   "crew-lead-1",
		CreatedAt:   time.Now(),
	}
	_, _ = db.NewInsert().Model(&event).Exec(ctx)

	taskRows := []models.TaskDone{
		{TaskID: "task-seed-1", EventID: event.EventID, Name: "Excavate patio area", Description: "Dig to 20cm over marked area", TotalHours: 16, AssignedTo: "crew-1", CreatedAt: time.Now()},
		{TaskID: "task-seed-2", EventID: event.EventID, Name: "Lay paver base", Description: "Gravel and sand base layers", TotalHours: 12, AssignedTo: "crew-1", CreatedAt: time.Now()},
	}
	_, _ = db.NewInsert().Model(&taskRows).Exec(ctx)

	entries := []models.TaskProgressEntry{
		{EntryID: "entry-seed-1", TaskID: "task-seed-1", Hours: 6, Note: "North half excavated", RecordedBy: "crew-1", RecordedAt: time.Now().AddDate(0, 0, -2)},
		{EntryID: "entry-seed-2", TaskID: "task-seed-1", Hours: 4, Note: "South half started", RecordedBy: "crew-1", RecordedAt: time.Now().AddDate(0, 0, -1)},
	}
	_, _ = db.NewInsert().Model(&entries).Exec(ctx)

	checklist := []models.EventTask{
		{ItemID: "item-seed-1", EventID: event.EventID, Name: "Confirm utility markings", Completed: true, Position: 0, CreatedAt: time.Now()},
		{ItemID: "item-seed-2", EventID: event.EventID, Name: "Order pavers", Completed: false, Position: 1, CreatedAt: time.Now()},
	}
	_, _ = db.NewInsert().Model(&checklist).Exec(ctx)

	materialRows := []models.MaterialDelivered{
		{MaterialID: "mat-seed-1", EventID: event.EventID, Name: "Crushed gravel", Unit: "ton", TotalRequired: 8, CreatedAt: time.Now()},
		{MaterialID: "mat-seed-2", EventID: event.EventID, Name: "Pavers", Unit: "m2", TotalRequired: 40, CreatedAt: time.Now()},
	}
	_, _ = db.NewInsert().Model(&materialRows).Exec(ctx)

	delivery := models.MaterialDelivery{
		DeliveryID:  "dlv-seed-1",
		MaterialID:  "mat-seed-1",
		Amount:      5,
		Note:        "First load",
		DeliveredBy: "crew-lead-1",
		DeliveredAt: time.Now().AddDate(0, 0, -3),
	}
	_, _ = db.NewInsert().Model(&delivery).Exec(ctx)

	equipmentRows := []models.Equipment{
		{EquipmentID: "eq-seed-1", Name: "Mini excavator", Category: "heavy", Status: models.EquipmentStatusAvailable, SerialNo: "EX-2041", CreatedAt: time.Now()},
		{EquipmentID: "eq-seed-2", Name: "Plate compactor", Category: "compaction", Status: models.EquipmentStatusAvailable, SerialNo: "PC-1187", CreatedAt: time.Now()},
	}
	_, _ = db.NewInsert().Model(&equipmentRows).Exec(ctx)

	setup := models.SetupDigging{
		SetupID:  "setup-seed-1",
		EventID:  event.EventID,
		AreaSqm:  42.5,
		DepthCm:  20,
		SoilType: "clay loam",
		Notes:    "Drainage slope toward the river side",
	}
	_, _ = db.NewInsert().Model(&setup).Exec(ctx)

	return nil
}

package mock

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	applog "mixguard/internal/log"
	"mixguard/models"
)

var sequence atomic.Int64

// New returns an in-memory sqlite database seeded with a representative
// slice of the medicine/supplement catalog. Each call opens a fresh
// database so tests do not share state.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	dsn := fmt.Sprintf("file:mixguard-mock-%d?mode=memory&cache=shared", sequence.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		PrepareStmt:                              true,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.Product{},
		&models.BrandName{},
		&models.ProductIngredient{},
		&models.LabelStatement{},
		&models.Interaction{},
	); err != nil {
		return nil, err
	}

	if err := seed(ctx, db); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return db, nil
}

func seed(ctx context.Context, db *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	warfarin := models.Product{
		Name:        "Warfarin",
		Kind:        models.KindMedicine,
		GenericName: "warfarin sodium",
		BrandNames: []models.BrandName{
			{Name: "Coumadin", Position: 1},
			{Name: "Jantoven", Position: 2},
		},
		DosageForm:   "tablet",
		Strength:     "5 mg",
		Description:  "Vitamin K antagonist anticoagulant used to prevent blood clots.",
		MarketStatus: "Active",
		Ingredients: []models.ProductIngredient{
			{Name: "Warfarin Sodium", Amount: "5", Unit: "mg", Position: 1},
		},
	}

	vitaminK2 := models.Product{
		Name:        "Vitamin K2 (MK-7)",
		Kind:        models.KindSupplement,
		GenericName: "menaquinone-7",
		DosageForm:  "softgel",
		Strength:    "100 mcg",
		Description: "Supports bone mineralisation and normal blood clotting.",
		Ingredients: []models.ProductIngredient{
			{Name: "Menaquinone-7", Amount: "100", Unit: "mcg", Position: 1},
		},
		LabelStatements: []models.LabelStatement{
			{Type: "claim", Statement: "Supports healthy bones."},
			{Type: "precaution", Statement: "Consult a physician if taking anticoagulant medication."},
		},
	}

	aspirin := models.Product{
		Name:        "Aspirin",
		Kind:        models.KindMedicine,
		GenericName: "acetylsalicylic acid",
		BrandNames: []models.BrandName{
			{Name: "Bayer Aspirin", Position: 1},
		},
		DosageForm:   "tablet",
		Strength:     "325 mg",
		Description:  "Analgesic and antiplatelet agent.",
		MarketStatus: "Active",
		Ingredients: []models.ProductIngredient{
			{Name: "Acetylsalicylic Acid", Amount: "325", Unit: "mg", Position: 1},
		},
	}

	fishOil := models.Product{
		Name:        "Fish Oil 1000mg",
		Kind:        models.KindSupplement,
		GenericName: "omega-3 fatty acids",
		DosageForm:  "softgel",
		Strength:    "1000 mg",
		Description: "Concentrated source of EPA and DHA.",
		Ingredients: []models.ProductIngredient{
			{Name: "EPA", Amount: "300", Unit: "mg", Position: 1},
			{Name: "DHA", Amount: "200", Unit: "mg", Position: 2},
		},
	}

	stJohnsWort := models.Product{
		Name:        "St. John's Wort",
		Kind:        models.KindSupplement,
		GenericName: "hypericum perforatum",
		DosageForm:  "capsule",
		Strength:    "300 mg",
		Description: "Herbal extract traditionally used for low mood.",
		Ingredients: []models.ProductIngredient{
			{Name: "Hypericin", Amount: "0.9", Unit: "mg", Position: 1},
		},
	}

	sertraline := models.Product{
		Name:        "Sertraline",
		Kind:        models.KindMedicine,
		GenericName: "sertraline hydrochloride",
		BrandNames: []models.BrandName{
			{Name: "Zoloft", Position: 1},
		},
		DosageForm:   "tablet",
		Strength:     "50 mg",
		Description:  "Selective serotonin reuptake inhibitor antidepressant.",
		MarketStatus: "Active",
		Ingredients: []models.ProductIngredient{
			{Name: "Sertraline Hydrochloride", Amount: "50", Unit: "mg", Position: 1},
		},
	}

	vitaminD3 := models.Product{
		Name:        "Vitamin D3 5000 IU",
		Kind:        models.KindSupplement,
		GenericName: "cholecalciferol",
		DosageForm:  "softgel",
		Strength:    "5000 IU",
		Description: "Supports immune function and calcium absorption.",
		Ingredients: []models.ProductIngredient{
			{Name: "Cholecalciferol", Amount: "125", Unit: "mcg", Position: 1},
		},
	}

	products := []*models.Product{&warfarin, &vitaminK2, &aspirin, &fishOil, &stJohnsWort, &sertraline, &vitaminD3}
	for _, product := range products {
		if err := db.WithContext(ctx).Create(product).Error; err != nil {
			return err
		}
	}

	interactions := []models.Interaction{
		{
			Severity:    models.SeveritySevere,
			Description: "Vitamin K2 antagonises warfarin and can reduce its anticoagulant effect, increasing clot risk.",
			Mechanism:   "Vitamin K restores synthesis of clotting factors inhibited by warfarin.",
			Source:      "curated",
		},
		{
			Severity:    models.SeveritySevere,
			Description: "Aspirin combined with warfarin markedly increases bleeding risk.",
			Mechanism:   "Additive antiplatelet and anticoagulant effects.",
			Source:      "curated",
		},
		{
			Severity:    models.SeverityContraindicated,
			Description: "St. John's Wort with sertraline can precipitate serotonin syndrome and should be avoided.",
			Mechanism:   "Additive serotonergic activity plus CYP3A4 induction.",
			Source:      "curated",
		},
		{
			Severity:    models.SeverityMild,
			Description: "High-dose fish oil may slightly potentiate the antiplatelet effect of aspirin.",
			Source:      "curated",
		},
	}

	pairs := [][2]uint{
		{warfarin.ID, vitaminK2.ID},
		{warfarin.ID, aspirin.ID},
		{stJohnsWort.ID, sertraline.ID},
		{aspirin.ID, fishOil.ID},
	}

	for idx := range interactions {
		interactions[idx].ProductID1, interactions[idx].ProductID2 = models.CanonicalPair(pairs[idx][0], pairs[idx][1])
		if err := db.WithContext(ctx).Create(&interactions[idx]).Error; err != nil {
			return err
		}
	}

	applog.Debug(ctx, "mock database seeded")
	return nil
}

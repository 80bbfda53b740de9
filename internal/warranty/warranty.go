// Package warranty is the read-only query layer over the warranty
// database. It fetches SKU rows grouped by web product group ID and is
// the single source of truth for every sync pass; nothing derived from
// it is cached between runs.
package warranty

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/mjardine/gemsync/internal/models"
)

// ErrNotFound is returned when no rows match a group ID.
var ErrNotFound = errors.New("group not found")

// Source is the query boundary consumed by the sync engine.
type Source interface {
	FetchGroup(ctx context.Context, groupID string) (*models.Group, error)
	FetchAllGroupIDs(ctx context.Context) ([]string, error)
}

// DB implements Source over a MySQL warranty database.
type DB struct {
	db *sql.DB
}

// Open connects to the warranty database.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open warranty database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &DB{db: db}, nil
}

// Close releases the connection pool.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping verifies connectivity with a short timeout.
func (d *DB) Ping(ctx context.Context) error {
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return d.db.PingContext(c)
}

// FetchAllGroupIDs returns every distinct non-empty group ID.
func (d *DB) FetchAllGroupIDs(ctx context.Context) ([]string, error) {
	const q = `
		SELECT DISTINCT Web_Product_Group_ID
		FROM nav_items
		WHERE Web_Product_Group_ID IS NOT NULL AND Web_Product_Group_ID != ''
		ORDER BY Web_Product_Group_ID`

	rows, err := d.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query group ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan group id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FetchGroup returns all SKU rows for one group, with the primary stone
// component's details folded into each row. Fails with ErrNotFound when
// the group has no rows.
func (d *DB) FetchGroup(ctx context.Context, groupID string) (*models.Group, error) {
	const q = `
		SELECT No_, Item_Category_Code, Product_Subgroup_Code,
		       Metal_Stamp, Metal_Color, Metal_Code,
		       Primary_Gem_Material_Type, Primary_Gem_Shape, Primary_Gem_Color,
		       Stone_Weight__Carats_, Ring_Size, Plating_Code,
		       Main_Setting_Type, Collection, Jewelry_Brand, Gemstone_Brand,
		       Style_ID, Web_Descriptor, Image_SKU,
		       Is_Best_Seller, Is_High_ROAS, Is_Pinterest
		FROM nav_items
		WHERE Web_Product_Group_ID = ?`

	rows, err := d.db.QueryContext(ctx, q, groupID)
	if err != nil {
		return nil, fmt.Errorf("query group %s: %w", groupID, err)
	}
	defer rows.Close()

	group := &models.Group{ID: groupID}
	for rows.Next() {
		r, err := scanSKURow(rows, groupID)
		if err != nil {
			return nil, err
		}
		group.Rows = append(group.Rows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(group.Rows) == 0 {
		return nil, fmt.Errorf("group %s: %w", groupID, ErrNotFound)
	}

	if err := d.attachStoneComponents(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

func scanSKURow(rows *sql.Rows, groupID string) (*models.SKURow, error) {
	var (
		r                                          models.SKURow
		subgroup, stamp, color, metalCode          sql.NullString
		material, shape, stoneColor, plating       sql.NullString
		setting, collection, jBrand, gBrand        sql.NullString
		styleID, descriptor, imageSKU, category    sql.NullString
		caratWeight, ringSize                      sql.NullFloat64
		isBestSeller, isHighROAS, isPinterest      sql.NullBool
	)

	err := rows.Scan(&r.SKU, &category, &subgroup,
		&stamp, &color, &metalCode,
		&material, &shape, &stoneColor,
		&caratWeight, &ringSize, &plating,
		&setting, &collection, &jBrand, &gBrand,
		&styleID, &descriptor, &imageSKU,
		&isBestSeller, &isHighROAS, &isPinterest)
	if err != nil {
		return nil, fmt.Errorf("scan sku row: %w", err)
	}

	r.GroupID = groupID
	r.Category = category.String
	r.SubgroupCode = subgroup.String
	r.MetalStamp = stamp.String
	r.MetalColor = color.String
	r.MetalCode = metalCode.String
	r.MaterialCode = material.String
	r.ShapeCode = shape.String
	r.StoneColor = stoneColor.String
	r.PlatingCode = plating.String
	r.CaratWeight = caratWeight.Float64
	r.RingSize = ringSize.Float64
	r.MainSettingType = setting.String
	r.Collection = collection.String
	r.JewelryBrand = jBrand.String
	r.GemstoneBrand = gBrand.String
	r.StyleID = styleID.String
	r.WebDescriptor = descriptor.String
	r.ImageSKU = imageSKU.String
	if isBestSeller.Valid {
		r.IsBestSeller = &isBestSeller.Bool
	}
	if isHighROAS.Valid {
		r.IsHighROAS = &isHighROAS.Bool
	}
	if isPinterest.Valid {
		r.IsPinterest = &isPinterest.Bool
	}
	return &r, nil
}

// attachStoneComponents folds the primary stone component (lowest rank,
// non-metal) of each SKU into its row: clarity, dimensions, and count.
func (d *DB) attachStoneComponents(ctx context.Context, group *models.Group) error {
	bySKU := make(map[string]*models.SKURow, len(group.Rows))
	placeholders := make([]string, 0, len(group.Rows))
	args := make([]any, 0, len(group.Rows))
	for _, r := range group.Rows {
		bySKU[r.SKU] = r
		placeholders = append(placeholders, "?")
		args = append(args, r.SKU)
	}

	q := fmt.Sprintf(`
		SELECT Parent_Item_No_, Primary_Gem_Grade_Clarity,
		       Primary_Gem_Diameter_Length_MM, Primary_Gem_Width_MM, Pieces_Per
		FROM nav_bom_components
		WHERE Parent_Item_No_ IN (%s) AND Metal_Type = '0'
		ORDER BY Parent_Item_No_, `+"`RANK`", strings.Join(placeholders, ","))

	rows, err := d.db.QueryContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("query stone components for group %s: %w", group.ID, err)
	}
	defer rows.Close()

	seen := make(map[string]bool, len(group.Rows))
	for rows.Next() {
		var (
			parent         string
			clarity        sql.NullString
			length, width  sql.NullFloat64
			pieces         sql.NullInt64
		)
		if err := rows.Scan(&parent, &clarity, &length, &width, &pieces); err != nil {
			return fmt.Errorf("scan stone component: %w", err)
		}
		// Only the first (lowest rank) stone per SKU is the primary one.
		if seen[parent] {
			continue
		}
		seen[parent] = true

		r, ok := bySKU[parent]
		if !ok {
			continue
		}
		r.ClarityCode = clarity.String
		r.LengthMM = length.Float64
		r.WidthMM = width.Float64
		r.StoneCount = int(pieces.Int64)
	}
	return rows.Err()
}

package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema for the fulfillment core. Append-only collections (rejections,
// verification history, credits) live in child tables keyed by parent id.
// The *_at columns on orders are the first-entry stamps; last_assigned_at
// and last_accepted_at track the current assignment and are cleared on
// rejection.
const schema = `
CREATE TABLE IF NOT EXISTS vendors (
    id                TEXT PRIMARY KEY,
    name              TEXT NOT NULL,
    phone             TEXT,
    address           JSONB,
    delivery_pincodes TEXT[] NOT NULL DEFAULT '{}',
    created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS delivery_partners (
    id                  TEXT PRIMARY KEY,
    user_id             TEXT NOT NULL,
    full_name           TEXT NOT NULL DEFAULT '',
    mobile_no           TEXT NOT NULL DEFAULT '',
    alternate_mobile_no TEXT NOT NULL DEFAULT '',
    address             JSONB,
    vehicle             JSONB,
    bank                JSONB,
    working_hours       JSONB,
    delivery_zones      TEXT[] NOT NULL DEFAULT '{}',
    is_available        BOOLEAN NOT NULL DEFAULT FALSE,
    verification_status TEXT NOT NULL DEFAULT 'pending',
    rating_average      DOUBLE PRECISION NOT NULL DEFAULT 0,
    rating_count        INTEGER NOT NULL DEFAULT 0,
    lifetime_completed  INTEGER NOT NULL DEFAULT 0,
    lifetime_cancelled  INTEGER NOT NULL DEFAULT 0,
    lifetime_earnings   DOUBLE PRECISION NOT NULL DEFAULT 0,
    month_completed     INTEGER NOT NULL DEFAULT 0,
    month_cancelled     INTEGER NOT NULL DEFAULT 0,
    month_earnings      DOUBLE PRECISION NOT NULL DEFAULT 0,
    month_key           TEXT NOT NULL DEFAULT '',
    joined_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS partner_verifications (
    id          BIGSERIAL PRIMARY KEY,
    partner_id  TEXT NOT NULL REFERENCES delivery_partners(id),
    vendor_id   TEXT NOT NULL,
    vendor_name TEXT NOT NULL,
    action      TEXT NOT NULL,
    reason      TEXT NOT NULL DEFAULT '',
    decided_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_partner_verifications_partner
    ON partner_verifications(partner_id, decided_at);

CREATE TABLE IF NOT EXISTS orders (
    id                  TEXT PRIMARY KEY,
    order_number        TEXT UNIQUE NOT NULL,
    customer_id         TEXT NOT NULL,
    vendor_id           TEXT NOT NULL,
    delivery_partner_id TEXT,
    total_amount        DOUBLE PRECISION NOT NULL,
    payment_method      TEXT NOT NULL DEFAULT '',
    status              TEXT NOT NULL,
    customer_details    JSONB,
    vendor_details      JSONB,
    delivery_address    JSONB,
    partner_name        TEXT,
    partner_phone       TEXT,
    delivery_fee        DOUBLE PRECISION NOT NULL DEFAULT 0,
    partner_earnings    DOUBLE PRECISION NOT NULL DEFAULT 0,
    distance_km         DOUBLE PRECISION NOT NULL DEFAULT 0,
    last_assigned_at    TIMESTAMPTZ,
    last_accepted_at    TIMESTAMPTZ,
    placed_at           TIMESTAMPTZ,
    confirmed_at        TIMESTAMPTZ,
    preparing_at        TIMESTAMPTZ,
    ready_at            TIMESTAMPTZ,
    assigned_at         TIMESTAMPTZ,
    accepted_at         TIMESTAMPTZ,
    picked_up_at        TIMESTAMPTZ,
    out_for_delivery_at TIMESTAMPTZ,
    delivered_at        TIMESTAMPTZ,
    cancelled_at        TIMESTAMPTZ,
    rating              JSONB,
    version             BIGINT NOT NULL DEFAULT 1,
    created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_orders_vendor_status ON orders(vendor_id, status);
CREATE INDEX IF NOT EXISTS idx_orders_partner ON orders(delivery_partner_id);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
CREATE INDEX IF NOT EXISTS idx_orders_delivered_at ON orders(delivered_at);

CREATE TABLE IF NOT EXISTS order_items (
    order_id     TEXT NOT NULL REFERENCES orders(id),
    position     INTEGER NOT NULL,
    menu_item_id TEXT NOT NULL,
    name         TEXT NOT NULL,
    unit_price   DOUBLE PRECISION NOT NULL,
    quantity     INTEGER NOT NULL,
    subtotal     DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (order_id, position)
);

CREATE TABLE IF NOT EXISTS order_rejections (
    id          BIGSERIAL PRIMARY KEY,
    order_id    TEXT NOT NULL REFERENCES orders(id),
    partner_id  TEXT NOT NULL,
    reason      TEXT NOT NULL DEFAULT '',
    rejected_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_order_rejections_order
    ON order_rejections(order_id, rejected_at);

CREATE TABLE IF NOT EXISTS partner_order_credits (
    order_id    TEXT PRIMARY KEY,
    partner_id  TEXT NOT NULL,
    kind        TEXT NOT NULL,
    amount      DOUBLE PRECISION NOT NULL DEFAULT 0,
    credited_at TIMESTAMPTZ NOT NULL
);
`

// Migrate creates all tables and indexes if they do not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}

package database

import (
	"log"
	"sync"

	"github.com/gocql/gocql"
)

var (
	// Prepared statements pour les requêtes chaudes du checkout
	stmtGetOrder        *gocql.Query
	stmtGetOrderItems   *gocql.Query
	stmtGetCartItems    *gocql.Query
	stmtGetPaymentByTx  *gocql.Query
	stmtInsertAuditLog  *gocql.Query

	preparedOnce sync.Once
)

// InitPreparedStatements initialise les prepared statements
func InitPreparedStatements() {
	preparedOnce.Do(func() {
		session, err := GetOrdersSession()
		if err != nil {
			log.Printf("⚠️ Impossible d'initialiser les prepared statements: %v", err)
			return
		}

		stmtGetOrder = session.Query(`SELECT order_id, order_code, user_id, total_price, order_status, payment_status, created_at, updated_at
			FROM orders WHERE order_id = ?`)

		stmtGetOrderItems = session.Query(`SELECT item_id, order_id, product_id, variant_id, quantity, price, size, color, sku
			FROM order_items WHERE order_id = ?`)

		stmtGetCartItems = session.Query(`SELECT user_id, product_id, variant_id, quantity, added_at
			FROM cart_items WHERE user_id = ?`)

		stmtGetPaymentByTx = session.Query(`SELECT payment_id, order_id, amount, method, status, reference_number
			FROM payments_by_transaction WHERE transaction_id = ?`)

		stmtInsertAuditLog = session.Query(`INSERT INTO order_audit (id, user_id, action, resource, resource_id, old_value, new_value, success, error_msg, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

		log.Println("✅ Prepared statements initialisés")
	})
}

func GetPreparedGetOrder() *gocql.Query {
	return stmtGetOrder
}

func GetPreparedGetOrderItems() *gocql.Query {
	return stmtGetOrderItems
}

func GetPreparedGetCartItems() *gocql.Query {
	return stmtGetCartItems
}

func GetPreparedGetPaymentByTx() *gocql.Query {
	return stmtGetPaymentByTx
}

func GetPreparedInsertAuditLog() *gocql.Query {
	return stmtInsertAuditLog
}

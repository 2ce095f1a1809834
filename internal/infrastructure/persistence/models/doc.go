// Package models contains the GORM persistence models of the ledger tables.
// Domain aggregates stay free of ORM tags; each model converts to and from
// its aggregate with ToDomain / FromDomain.
//
// Tables:
//   - commercial_orders, commercial_order_items: read-only order source
//   - ledger_titles, ledger_title_lines: receivables and payables
//   - accounting_rules, ledger_accounts: automatic posting rules
//   - accounting_entries, accounting_entry_lines: double-entry journal
//   - settlement_headers, settlement_lines: payments and receipts
//   - financial_accounts, payment_methods: display lookups
//   - outbox_events: transactional outbox
package models

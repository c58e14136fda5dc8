package shared

import "fmt"

// GlobalScope is used in lock and sequence keys when numbering is not per store.
const GlobalScope = "GLOBAL"

// VoucherLockKey builds redis keys guarding a single voucher sequence.
func VoucherLockKey(voucherType, storeCode, resetKey string) string {
	if storeCode == "" {
		storeCode = GlobalScope
	}
	return fmt.Sprintf("voucher:%s:%s:%s:lock", voucherType, storeCode, resetKey)
}

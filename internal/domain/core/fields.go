package core

import "hrconsole/internal/domain/auth"

// FilterEmployeeFields clears pay and banking details for anyone but HR.
func FilterEmployeeFields(emp *Employee, user auth.UserContext) {
	if user.Role == auth.RoleHR {
		return
	}
	emp.TaxID = ""
	emp.BankAccount = ""
	emp.BasicSalary = nil
}

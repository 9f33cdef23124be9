package models

// AllModels lists every table the service owns, in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&AdminPrincipal{},
		&Product{},
		&BlogPost{},
		&Story{},
		&JobPosting{},
		&Distributor{},
		&PageSection{},
		&StrandedAsset{},
	}
}

// ContentModels lists the managed content types.
func ContentModels() []Content {
	return []Content{
		&Product{},
		&BlogPost{},
		&Story{},
		&JobPosting{},
		&Distributor{},
		&PageSection{},
	}
}

package usecase

import "github.com/easylaw/easylaw-cli/internal/core/cache"

// Key constructors shared by every use case. Case-owned collections carry
// the case id as Parent so invalidation cascades per case.

func caseListKey() cache.Key {
	return cache.Key{Kind: cache.KindCaseList}
}

func caseKey(id string) cache.Key {
	return cache.Key{Kind: cache.KindCase, ID: id}
}

func messagesKey(caseID string) cache.Key {
	return cache.Key{Kind: cache.KindMessages, ID: caseID, Parent: caseID}
}

func documentsKey(caseID string) cache.Key {
	return cache.Key{Kind: cache.KindDocuments, ID: caseID, Parent: caseID}
}

func documentKey(caseID, documentID string) cache.Key {
	return cache.Key{Kind: cache.KindDocument, ID: documentID, Parent: caseID}
}

func userListKey() cache.Key {
	return cache.Key{Kind: cache.KindUserList}
}

func userKey(id string) cache.Key {
	return cache.Key{Kind: cache.KindUser, ID: id}
}

// Package domain models job postings and the Korean administrative regions
// they are placed under on the job map.
//
// # Data Source
//
// Postings are scraped from 35+ government and public-institution job boards
// (education offices, local governments, public corporations) plus manual
// entries from the admin console. The crawler publishes each posting as JSON
// to the Kafka source topic; the location field is whatever free text the
// source board displayed.
//
// # Location Conventions
//
// Location strings are written inconsistently across sources:
//
//	Short province form:        "경기 성남시", "서울 강남구"
//	Full legal form:            "서울특별시 강남구", "충청북도 청주시"
//	Concatenated:               "경기도성남시", "충청북도청주시"
//	Crawler shorthand:          "부산광역 해운대구", "충청북 충주"
//	Bare city or district:      "성남시", "해운대구", "가평군"
//	Compound jurisdiction:      "구리남양주교육지원청 공고", "화성오산교육지원청"
//	Nationwide / unclusterable: "전국", "전국단위"
//
// Administrative suffixes:
//
//	Province level: 특별시, 광역시, 특별자치시, 도, 특별자치도
//	City level:     시, 군, 구 (stripped from city names: "성남시" → "성남")
//
// # Region Identity
//
// A [RegionIdentity] is derived fresh on every call, never stored:
//
//	Province level: Key = Province,            e.g. "경기"
//	City level:     Key = Province + "_" + Name, e.g. "경기_성남"
//
// Keys never collide across provinces because the province is part of the key.
// Same-named districts in different metropolitan cities ("서울_중", "부산_중")
// therefore stay distinct.
//
// # Provinces
//
// The 17 canonical provinces are the top-level divisions: 8 metropolitan or
// special cities (서울, 부산, 대구, 인천, 광주, 대전, 울산, 세종) and 9 provinces
// (경기, 강원, 충북, 충남, 전북, 전남, 경북, 경남, 제주). [ProvinceNationwide]
// ("전국") is a reserved sentinel outside that set: the posting is recognized but
// explicitly has no single location, so it is kept in list views and excluded
// from map clusters.
package domain
